package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/membership"
)

type decisionKey struct{}

// Authorizer is satisfied by *membership.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, header string) (membership.Decision, error)
}

// DecisionFrom returns the membership decision RequireMember attached.
func DecisionFrom(ctx context.Context) (membership.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(membership.Decision)
	return d, ok
}

func WithDecision(ctx context.Context, d membership.Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// ForwardBearer makes the caller's token available to proxy-mode providers.
func ForwardBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, err := membership.BearerToken(r.Header.Get("Authorization")); err == nil {
			r = r.WithContext(llmclient.WithBearer(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember rejects callers without an active membership: 401
// unauthorized for a missing or bad token, 403 membership_inactive for an
// expired or revoked one. A nil gate lets everything through.
func RequireMember(gate Authorizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if gate == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := gate.Authorize(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				var ae *llmclient.AuthorizationError
				if errors.As(err, &ae) {
					writeError(w, ae.Status, ae.Reason)
					return
				}
				logger.Error("auth check failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "auth_check_failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithDecision(r.Context(), d)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// TokenQuery copies ?token= into the Authorization header when the request
// has none. Browsers cannot set headers on a websocket handshake.
func TokenQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
				r.Header.Set("Authorization", "Bearer "+tok)
			}
		}
		next.ServeHTTP(w, r)
	})
}
