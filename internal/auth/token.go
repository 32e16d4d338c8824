// Package auth verifies Supabase session tokens and exposes the caller as a
// domain.Actor on the request context.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"educonnect/placement-service/internal/domain"
)

// ErrExpired is returned for tokens whose exp is in the past.
var ErrExpired = errors.New("your session has expired, please log in again")

// ErrInvalid is returned for missing or unverifiable tokens.
var ErrInvalid = errors.New("invalid or missing session token")

// Claims is the subset of the Supabase access token the service reads.
type Claims struct {
	Email       string         `json:"email"`
	AppMetadata map[string]any `json:"app_metadata"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with the project JWT secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for secret.
func NewVerifier(secret string, leeway time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		leeway: leeway,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify parses token and returns the Actor it identifies.
func (v *Verifier) Verify(token string) (domain.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Actor{}, ErrInvalid
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, ErrExpired
		}
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalid)
	}

	roleClaim, _ := claims.AppMetadata["role"].(string)
	role, err := domain.ParseRole(roleClaim)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return domain.Actor{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// Sign issues a token for actor. Used by tests and local tooling.
func (v *Verifier) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:       actor.Email,
		AppMetadata: map[string]any{"role": string(actor.Role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
