// Package auth verifies bearer tokens against the identity provider.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrMissingToken       = apperr.Auth("missing bearer token", nil)
	ErrInvalidToken       = apperr.Auth("invalid or expired token", nil)
	ErrInvalidCredentials = apperr.Auth("invalid email or password", nil)
	ErrLoginUnsupported   = apperr.Validation("password login is not available in this auth mode")
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Audience  string     `json:"aud,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Verifier resolves a bearer token to its user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// Provider is a Verifier that can also open and close sessions.
type Provider interface {
	Verifier
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type userKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}
