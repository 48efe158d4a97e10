package membership

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	llmclient "topicgrid/internal/llm/client"
)

const (
	ReasonUnauthorized       = "unauthorized"
	ReasonMembershipInactive = "membership_inactive"

	DefaultCacheTTL  = 30 * time.Second
	defaultCacheSize = 1024
)

// Decision is the outcome of checking one bearer token.
type Decision struct {
	User    User     `json:"user"`
	Profile *Profile `json:"profile"`
	Status  Status   `json:"status"`
}

// Gate checks that the caller behind a bearer token holds an active
// membership. Decisions are cached per token for a short TTL.
type Gate struct {
	verifier TokenVerifier
	profiles ProfileStore
	now      func() time.Time
	cache    *expirable.LRU[string, Decision]
}

func NewGate(verifier TokenVerifier, profiles ProfileStore, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Gate{
		verifier: verifier,
		profiles: profiles,
		now:      time.Now,
		cache:    expirable.NewLRU[string, Decision](defaultCacheSize, nil, ttl),
	}
}

// Check resolves header to a user and their membership status without
// rejecting inactive members. Only token problems yield an
// *llmclient.AuthorizationError (401).
func (g *Gate) Check(ctx context.Context, header string) (Decision, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Decision{}, &llmclient.AuthorizationError{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized}
	}
	if d, ok := g.cache.Get(token); ok {
		// Expiration can pass while the entry is cached.
		d.Status = StatusOf(d.Profile, g.now())
		return d, nil
	}
	user, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrMissingToken) {
			return Decision{}, &llmclient.AuthorizationError{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized}
		}
		return Decision{}, fmt.Errorf("verify token: %w", err)
	}
	profile, err := g.profiles.Get(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return Decision{}, fmt.Errorf("load profile %s: %w", user.ID, err)
	}
	d := Decision{User: user, Profile: profile, Status: StatusOf(profile, g.now())}
	g.cache.Add(token, d)
	return d, nil
}

// Authorize is Check plus the membership rule: anything but an active
// status is rejected with 403 membership_inactive.
func (g *Gate) Authorize(ctx context.Context, header string) (Decision, error) {
	d, err := g.Check(ctx, header)
	if err != nil {
		return Decision{}, err
	}
	if d.Status != StatusActive {
		return d, &llmclient.AuthorizationError{Status: http.StatusForbidden, Reason: ReasonMembershipInactive}
	}
	return d, nil
}

// Forget drops every cached decision; admin writes call it so revocations
// take effect immediately.
func (g *Gate) Forget() {
	g.cache.Purge()
}
