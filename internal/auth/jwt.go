package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 access tokens locally with the shared secret.
// It cannot open sessions.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), now: time.Now}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return nil, apperr.Auth("invalid or expired token", err)
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	u := &User{ID: c.Subject, Email: c.Email, Role: c.Role}
	if len(c.Audience) > 0 {
		u.Audience = c.Audience[0]
	}
	if c.IssuedAt != nil {
		t := c.IssuedAt.Time.UTC()
		u.CreatedAt = &t
	}
	return u, nil
}

// Sign issues a token for u valid for ttl.
func (v *JWTVerifier) Sign(u User, ttl time.Duration) (string, error) {
	now := v.now()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if u.Audience != "" {
		c.Audience = jwt.ClaimStrings{u.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

func (v *JWTVerifier) Login(context.Context, string, string) (*Session, error) {
	return nil, ErrLoginUnsupported
}

// Logout is a no-op, stateless tokens expire on their own.
func (v *JWTVerifier) Logout(context.Context, string) error {
	return nil
}
