package membership

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "topicgrid/internal/llm/client"
)

func ptr[T any](v T) *T { return &v }

func TestStatusOf(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	cases := []struct {
		name string
		p    *Profile
		want Status
	}{
		{"no profile", nil, StatusExpired},
		{"no expiration", &Profile{}, StatusExpired},
		{"expired", &Profile{ExpirationAt: &past}, StatusExpired},
		{"active", &Profile{ExpirationAt: &future}, StatusActive},
		{"revoked beats active", &Profile{ExpirationAt: &future, RevokedAt: &past}, StatusRevoked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.p, now))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, h)
	}
}

func signed(t *testing.T, secret string, c claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "authenticated")
	require.NoError(t, err)

	good := signed(t, "s3cret", claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	u, err := v.Verify(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "user-1", Email: "a@example.com"}, u)

	wrongKey := signed(t, "other", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Audience: jwt.ClaimStrings{"authenticated"}}})
	_, err = v.Verify(context.Background(), wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := signed(t, "s3cret", claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTVerifier(" ", "")
	assert.Error(t, err)
}

type fakeVerifier struct {
	users map[string]User
	calls int
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (User, error) {
	f.calls++
	u, ok := f.users[token]
	if !ok {
		return User{}, ErrInvalidToken
	}
	return u, nil
}

func newGateFixture(t *testing.T) (*Gate, *fakeVerifier, *MemoryProfileStore) {
	t.Helper()
	v := &fakeVerifier{users: map[string]User{
		"tok-active":  {ID: "u-active", Email: "a@example.com"},
		"tok-expired": {ID: "u-expired"},
		"tok-revoked": {ID: "u-revoked"},
		"tok-none":    {ID: "u-none"},
	}}
	store := NewMemoryProfileStore()
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, store.Upsert(ctx, Profile{UserID: "u-active", Role: RoleMember, ExpirationAt: &future}))
	require.NoError(t, store.Upsert(ctx, Profile{UserID: "u-expired", Role: RoleMember, ExpirationAt: &past}))
	require.NoError(t, store.Upsert(ctx, Profile{UserID: "u-revoked", Role: RoleMember, ExpirationAt: &future, RevokedAt: &past}))
	return NewGate(v, store, time.Minute), v, store
}

func authStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	var ae *llmclient.AuthorizationError
	require.True(t, errors.As(err, &ae), "want AuthorizationError, got %v", err)
	return ae.Status, ae.Reason
}

func TestGateAuthorize(t *testing.T) {
	g, _, _ := newGateFixture(t)
	ctx := context.Background()

	d, err := g.Authorize(ctx, "Bearer tok-active")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, d.Status)
	assert.Equal(t, "u-active", d.User.ID)

	for _, h := range []string{"", "Bearer nope"} {
		_, err := g.Authorize(ctx, h)
		status, reason := authStatus(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, ReasonUnauthorized, reason)
	}

	for _, tok := range []string{"tok-expired", "tok-revoked", "tok-none"} {
		_, err := g.Authorize(ctx, "Bearer "+tok)
		status, reason := authStatus(t, err)
		assert.Equal(t, http.StatusForbidden, status, tok)
		assert.Equal(t, ReasonMembershipInactive, reason, tok)
	}
}

func TestGateCheckReportsInactiveWithoutError(t *testing.T) {
	g, _, _ := newGateFixture(t)
	d, err := g.Check(context.Background(), "Bearer tok-none")
	require.NoError(t, err)
	assert.Nil(t, d.Profile)
	assert.Equal(t, StatusExpired, d.Status)
}

func TestGateCachesUntilForget(t *testing.T) {
	g, v, store := newGateFixture(t)
	ctx := context.Background()

	_, err := g.Authorize(ctx, "Bearer tok-active")
	require.NoError(t, err)
	_, err = g.Authorize(ctx, "Bearer tok-active")
	require.NoError(t, err)
	assert.Equal(t, 1, v.calls)

	require.NoError(t, store.Revoke(ctx, "u-active", time.Now()))
	_, err = g.Authorize(ctx, "Bearer tok-active")
	require.NoError(t, err, "cached decision still active")

	g.Forget()
	_, err = g.Authorize(ctx, "Bearer tok-active")
	status, _ := authStatus(t, err)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 2, v.calls)
}

type failingProfiles struct{ MemoryProfileStore }

func (*failingProfiles) Get(context.Context, string) (*Profile, error) {
	return nil, errors.New("db down")
}

func TestGateSurfacesStoreFailure(t *testing.T) {
	v := &fakeVerifier{users: map[string]User{"t": {ID: "u"}}}
	g := NewGate(v, &failingProfiles{}, 0)
	_, err := g.Authorize(context.Background(), "Bearer t")
	require.Error(t, err)
	var ae *llmclient.AuthorizationError
	assert.False(t, errors.As(err, &ae))
}

func TestMemoryProfileStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProfileStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(ctx, Profile{UserID: "old", CreatedAt: base}))
	require.NoError(t, s.Upsert(ctx, Profile{UserID: "new", CreatedAt: base.Add(time.Hour)}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].UserID)
	assert.Equal(t, "old", got[1].UserID)

	_, err = s.Update(ctx, "missing", Patch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, s.Revoke(ctx, "missing", base), ErrProfileNotFound)
	assert.ErrorIs(t, s.Upsert(ctx, Profile{}), ErrUserIDRequired)
}
