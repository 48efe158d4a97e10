package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseAuth talks to the Supabase auth server with the service role key.
// It verifies user tokens and issues magic links for the admin surface.
//
// The gotrue client takes no context; ctx is only checked before each call.
type SupabaseAuth struct {
	client     *supabase.Client
	serviceKey string
}

func NewSupabaseAuth(url, serviceKey string) (*SupabaseAuth, error) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(serviceKey) == "" {
		return nil, errors.New("membership: supabase url and service role key are required")
	}
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseAuth{client: client, serviceKey: serviceKey}, nil
}

func (s *SupabaseAuth) Verify(ctx context.Context, token string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	resp, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if resp == nil || resp.ID == uuid.Nil {
		return User{}, ErrInvalidToken
	}
	return User{ID: resp.ID.String(), Email: resp.Email}, nil
}

func (s *SupabaseAuth) MagicLink(ctx context.Context, email, redirectTo string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	resp, err := s.client.Auth.WithToken(s.serviceKey).AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:       types.LinkTypeMagicLink,
		Email:      email,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate magic link: %w", err)
	}
	if resp.ID == uuid.Nil {
		return "", "", errors.New("generate magic link: response has no user")
	}
	return resp.ID.String(), resp.ActionLink, nil
}

func (s *SupabaseAuth) UpdateEmail(ctx context.Context, userID, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	_, err = s.client.Auth.WithToken(s.serviceKey).AdminUpdateUser(types.AdminUpdateUserRequest{
		UserID: id,
		Email:  email,
	})
	if err != nil {
		return fmt.Errorf("update auth user: %w", err)
	}
	return nil
}

// SendSignIn asks the auth server to mail a one-time sign-in link. It never
// creates a user.
func (s *SupabaseAuth) SendSignIn(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Auth.OTP(types.OTPRequest{Email: email, CreateUser: false})
}
