// Package auth verifies the bearer credentials issued by the user service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/happyflights/flightbooking/pkg/apperrors"
)

type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Identity is what the rest of the service knows about a caller.
type Identity struct {
	Subject string
	Email   string
	IsAdmin bool
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify checks the signature and expiry of token. Any failure is reported as
// apperrors.ErrUnauthorized.
func (v *Verifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token", apperrors.ErrUnauthorized)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	subject := claims.ID
	if subject == "" {
		subject = claims.Subject
	}
	return &Identity{Subject: subject, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

// Issue signs a token for subject. Used by tooling and tests.
func (v *Verifier) Issue(subject, email string, isAdmin bool, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	now := v.now()
	claims := Claims{
		ID:      subject,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
