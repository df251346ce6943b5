// Package cryptox implements one-way password hashing.
//
// Digests are self-describing strings (bcrypt "$2a$..." or PHC-style
// "$argon2id$..."), so the only way to compare a plaintext with a stored
// digest is PasswordHasher.Verify.
package cryptox

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Hasher names accepted by NewPasswordHasher.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// PasswordHasher hashes plaintext passwords and verifies them against stored
// digests.
//
// Hash fails only on internal faults (wrapped common.ErrorCryptoFailure) or an
// empty input (common.ErrorValidation). Verify reports a wrong password as
// (false, nil); an error means the digest itself could not be processed.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// NewPasswordHasher returns the hasher registered under name.
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HasherBcrypt:
		return NewBcryptHasher(DefaultBcryptCost), nil
	case HasherArgon2id:
		return NewArgon2Hasher(DefaultArgon2Params), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q: %w", name, common.ErrorValidation)
	}
}

// VerifyAny picks the hasher matching the digest prefix. It lets a service
// that switched algorithms keep accepting digests written by the old one.
func VerifyAny(plaintext, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, argon2Prefix):
		return NewArgon2Hasher(DefaultArgon2Params).Verify(plaintext, digest)
	case strings.HasPrefix(digest, "$2"):
		return NewBcryptHasher(DefaultBcryptCost).Verify(plaintext, digest)
	default:
		return false, fmt.Errorf("unrecognised digest format: %w", common.ErrorCryptoFailure)
	}
}
