// Package auth is the identity provider the task API trusts: it issues bearer
// tokens for an owner id and resolves tokens back to that id. It keeps no user
// records of its own.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that cannot be trusted.
var ErrInvalidToken = errors.New("token is not valid")

type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for ownerID.
func (s *TokenService) Issue(ownerID string) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner id is required")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies the token and returns the owner id it was issued for.
func (s *TokenService) Authenticate(tokenString string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return "", fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return c.UserID, nil
}
