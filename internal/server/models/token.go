package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// TokenKind tells what a stored token may be used for.
type TokenKind string

const (
	TokenKindAccess     TokenKind = "access"
	TokenKindRefresh    TokenKind = "refresh"
	TokenKindActivation TokenKind = "activation"
)

// ParseTokenKind validates a kind read from storage. Unknown values mean the
// stored row does not match the expected record shape.
func ParseTokenKind(s string) (TokenKind, error) {
	switch k := TokenKind(s); k {
	case TokenKindAccess, TokenKindRefresh, TokenKindActivation:
		return k, nil
	default:
		return "", fmt.Errorf("unknown token kind %q: %w", s, common.ErrorStorageFailure)
	}
}

// Token is an issued token record. Records are written once and never
// updated; refresh records are deleted when consumed.
type Token struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Kind      TokenKind `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewToken builds a record that expires ttl after now. Times are kept in UTC.
func NewToken(userID, token string, kind TokenKind, now time.Time, ttl time.Duration) *Token {
	now = now.UTC()
	return &Token{
		UserID:    userID,
		Token:     token,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Validate checks a record decoded from storage.
func (t *Token) Validate() error {
	if t.UserID == "" || t.Token == "" {
		return fmt.Errorf("incomplete token record: %w", common.ErrorStorageFailure)
	}
	if _, err := ParseTokenKind(string(t.Kind)); err != nil {
		return err
	}
	if t.ExpiresAt.IsZero() {
		return fmt.Errorf("token record without expiry: %w", common.ErrorStorageFailure)
	}
	return nil
}
