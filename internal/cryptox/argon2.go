package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix = "$argon2id$"

	// upper bound on the memory cost a stored digest may ask for, in KiB
	argon2MaxMemory = 1024 * 1024
)

// Argon2Params are the argon2id cost parameters stored alongside each digest.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params matches the parameters the vault used for master keys.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}

// Argon2Hasher produces PHC formatted argon2id digests:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt b64>$<key b64>
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("empty password: %w", common.ErrorValidation)
	}

	salt, err := common.RandomBytes(h.params.SaltLen)
	if err != nil {
		return "", fmt.Errorf("salt: %v: %w", err, common.ErrorCryptoFailure)
	}

	password := []byte(plaintext)
	key := argon2.IDKey(password, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	common.WipeByteArray(password)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plaintext, digest string) (bool, error) {
	p, salt, key, err := decodeArgon2(digest)
	if err != nil {
		return false, err
	}

	password := []byte(plaintext)
	candidate := argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	common.WipeByteArray(password)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2(digest string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("malformed argon2 digest: %w", common.ErrorCryptoFailure)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version: %w", common.ErrorCryptoFailure)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("malformed argon2 params: %w", common.ErrorCryptoFailure)
	}
	if p.Time < 1 || p.Threads < 1 || p.Memory < 8*uint32(p.Threads) || p.Memory > argon2MaxMemory {
		return p, nil, nil, fmt.Errorf("argon2 params out of range: %w", common.ErrorCryptoFailure)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("malformed argon2 salt: %w", common.ErrorCryptoFailure)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("malformed argon2 key: %w", common.ErrorCryptoFailure)
	}

	return p, salt, key, nil
}
