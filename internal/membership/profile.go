package membership

import (
	"errors"
	"time"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole accepts only the two roles the profiles table knows about.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMember, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

var ErrProfileNotFound = errors.New("membership: profile not found")

// Profile is one row of the profiles table.
type Profile struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Role         Role       `json:"role"`
	ExpirationAt *time.Time `json:"expiration_at"`
	RevokedAt    *time.Time `json:"revoked_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// StatusOf derives the membership status. A missing profile or a profile
// without an expiration date counts as expired; revocation wins over both.
func StatusOf(p *Profile, now time.Time) Status {
	if p == nil {
		return StatusExpired
	}
	if p.RevokedAt != nil {
		return StatusRevoked
	}
	if p.ExpirationAt == nil || p.ExpirationAt.Before(now) {
		return StatusExpired
	}
	return StatusActive
}
