// Package auth signs and parses the bearer tokens handed out by the service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the registered JWT claims plus the token kind. Subject carries
// the user id.
type Claims struct {
	jwt.RegisteredClaims
	Kind models.TokenKind `json:"kind"`
}

// GenerateToken signs an HS256 token for userID that expires validity after
// now. Every call embeds a fresh random ID, so two calls with identical
// arguments still produce different strings.
func GenerateToken(userID string, kind models.TokenKind, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("empty signing secret: %w", common.ErrorCryptoFailure)
	}
	if userID == "" {
		return "", fmt.Errorf("empty subject: %w", common.ErrorValidation)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Kind: kind,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %v: %w", err, common.ErrorCryptoFailure)
	}

	return tokenString, nil
}

// ParseToken verifies signature, algorithm and expiry of tokenString and
// returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%v: %w", err, common.ErrInvalidToken)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Signer issues and checks bearer tokens for a subject.
type Signer interface {
	Sign(secret []byte, subjectID string, kind models.TokenKind, ttl time.Duration, now time.Time) (string, error)
	Parse(secret []byte, token string) (*Claims, error)
}

// JWTSigner is the HS256 Signer.
type JWTSigner struct{}

func (JWTSigner) Sign(secret []byte, subjectID string, kind models.TokenKind, ttl time.Duration, now time.Time) (string, error) {
	return GenerateToken(subjectID, kind, secret, ttl, now)
}

func (JWTSigner) Parse(secret []byte, token string) (*Claims, error) {
	return ParseToken(token, secret)
}
