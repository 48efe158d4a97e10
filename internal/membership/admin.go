package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrForbidden      = errors.New("membership: forbidden")
	ErrUserIDRequired = errors.New("membership: user_id required")
	ErrEmailRequired  = errors.New("membership: email required")
	ErrEmailMissing   = errors.New("membership: profile has no email")
	// ErrUserCreation wraps auth server failures while creating a member.
	ErrUserCreation   = errors.New("membership: user creation failed")
)

// AuthUpdateError is a rejection from the auth server while changing a
// user's email. The profile row is left untouched.
type AuthUpdateError struct {
	Err error
}

func (e *AuthUpdateError) Error() string { return "update auth user: " + e.Err.Error() }
func (e *AuthUpdateError) Unwrap() error { return e.Err }

// LinkIssuer is the slice of the auth admin API the console needs.
type LinkIssuer interface {
	// MagicLink creates the user if needed and returns its id and sign-in link.
	MagicLink(ctx context.Context, email, redirectTo string) (userID, link string, err error)
	UpdateEmail(ctx context.Context, userID, email string) error
	SendSignIn(ctx context.Context, email string) error
}

type Admin struct {
	profiles      ProfileStore
	links         LinkIssuer
	publicBaseURL string
	gate          *Gate
	now           func() time.Time
	logger        *zap.Logger
}

// NewAdmin wires the admin console. gate may be nil; when set, its cache is
// dropped after every write.
func NewAdmin(profiles ProfileStore, links LinkIssuer, publicBaseURL string, gate *Gate, logger *zap.Logger) *Admin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Admin{
		profiles:      profiles,
		links:         links,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		gate:          gate,
		now:           time.Now,
		logger:        logger,
	}
}

func (a *Admin) redirectTo() string {
	return a.publicBaseURL + "/auth/callback"
}

func (a *Admin) changed() {
	if a.gate != nil {
		a.gate.Forget()
	}
}

// RequireAdmin fails with ErrForbidden unless userID has the admin role.
func (a *Admin) RequireAdmin(ctx context.Context, userID string) error {
	p, err := a.profiles.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (a *Admin) ListUsers(ctx context.Context) ([]Profile, error) {
	users, err := a.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []Profile{}
	}
	return users, nil
}

type CreateUserInput struct {
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	ExpirationAt *time.Time `json:"expiration_at"`
}

// UnmarshalJSON takes expiration_at as RFC3339 or a bare 2006-01-02 date,
// which is read as midnight UTC. Empty or null means no expiry.
func (in *CreateUserInput) UnmarshalJSON(data []byte) error {
	type plain CreateUserInput
	aux := struct {
		*plain
		ExpirationAt *string `json:"expiration_at"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.ExpirationAt = nil
	if aux.ExpirationAt == nil {
		return nil
	}
	t, err := ParseExpiration(*aux.ExpirationAt)
	if err != nil {
		return err
	}
	in.ExpirationAt = t
	return nil
}

// ParseExpiration reads an admin-supplied expiry. Blank input is nil.
func ParseExpiration(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("expiration_at %q: want RFC3339 or YYYY-MM-DD", raw)
}

type CreateUserResult struct {
	UserID    string `json:"userId"`
	MagicLink string `json:"magicLink"`
}

// CreateUser issues a magic link (creating the auth user) and upserts an
// unrevoked member profile for it.
func (a *Admin) CreateUser(ctx context.Context, in CreateUserInput) (CreateUserResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return CreateUserResult{}, ErrEmailRequired
	}
	userID, link, err := a.links.MagicLink(ctx, email, a.redirectTo())
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("%w: %v", ErrUserCreation, err)
	}
	err = a.profiles.Upsert(ctx, Profile{
		UserID:       userID,
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Role:         RoleMember,
		ExpirationAt: in.ExpirationAt,
	})
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("upsert profile: %w", err)
	}
	a.changed()
	a.logger.Info("member created", zap.String("user_id", userID))
	return CreateUserResult{UserID: userID, MagicLink: link}, nil
}

type UpdateUserInput struct {
	UserID string  `json:"user_id"`
	Email  *string `json:"email"`
	Name   *string `json:"name"`
	Role   string  `json:"role"`
}

// UpdateUser applies name/role changes; a new email is pushed to the auth
// server first and only stored when that succeeds. Unknown roles are ignored.
func (a *Admin) UpdateUser(ctx context.Context, in UpdateUserInput) (*Profile, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrUserIDRequired
	}
	current, err := a.profiles.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	var patch Patch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if role, ok := ParseRole(in.Role); ok {
		patch.Role = &role
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != "" && email != current.Email {
			if err := a.links.UpdateEmail(ctx, in.UserID, email); err != nil {
				return nil, &AuthUpdateError{Err: err}
			}
			patch.Email = &email
		}
	}
	if patch.Empty() {
		return current, nil
	}
	updated, err := a.profiles.Update(ctx, in.UserID, patch)
	if err != nil {
		return nil, err
	}
	a.changed()
	return updated, nil
}

func (a *Admin) Revoke(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	if err := a.profiles.Revoke(ctx, userID, a.now()); err != nil {
		return err
	}
	a.changed()
	a.logger.Info("member revoked", zap.String("user_id", userID))
	return nil
}

type ResendResult struct {
	MagicLink string `json:"magicLink"`
	SentEmail bool   `json:"sentEmail"`
}

// ResendMagicLink returns a fresh link for manual delivery and tries to
// mail one as well; a mail failure only clears SentEmail.
func (a *Admin) ResendMagicLink(ctx context.Context, userID string) (ResendResult, error) {
	if strings.TrimSpace(userID) == "" {
		return ResendResult{}, ErrUserIDRequired
	}
	p, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return ResendResult{}, err
	}
	if strings.TrimSpace(p.Email) == "" {
		return ResendResult{}, ErrEmailMissing
	}
	_, link, err := a.links.MagicLink(ctx, p.Email, a.redirectTo())
	if err != nil {
		return ResendResult{}, err
	}
	res := ResendResult{MagicLink: link}
	if err := a.links.SendSignIn(ctx, p.Email); err != nil {
		a.logger.Warn("sign-in mail not sent", zap.String("user_id", userID), zap.Error(err))
	} else {
		res.SentEmail = true
	}
	return res, nil
}
