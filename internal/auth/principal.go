// Package auth provides principals, API key authentication and user storage
// for the comment API.
package auth

import (
	"context"
	"fmt"
	"strings"
)

// Role is the privilege level of a principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a string to a Role, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("invalid role %q (must be USER or ADMIN)", s)
	}
}

// Principal is an authenticated actor. A nil *Principal means anonymous.
type Principal struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether p holds the admin role. Safe on nil.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Identity supplies the current principal, or nil when nobody is logged in.
type Identity interface {
	CurrentPrincipal() *Principal
}

// StaticIdentity is an Identity that always returns the same principal.
type StaticIdentity struct {
	Principal *Principal
}

// CurrentPrincipal implements Identity.
func (s StaticIdentity) CurrentPrincipal() *Principal {
	return s.Principal
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by RequireAPIKey, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
