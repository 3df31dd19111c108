// Package auth implements credential hashing, token generation, and the
// request authorization policy.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters are fixed service-wide. Every hash embeds its own
// parameters and salt, so changing these never invalidates stored hashes.
const (
	argonMemory  = 19456 // KiB
	argonTime    = 2
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// throttleHashCount is how many dummy hash computations run on a failed
// credential check, so the failure path costs about as much as a verify.
const throttleHashCount = 3

// ErrInvalidHash indicates a stored hash that cannot be parsed. This is a
// data-corruption signal, not an authentication failure.
var ErrInvalidHash = errors.New("malformed password hash")

// HashPassword derives an argon2id hash of the password with a fresh random
// salt, encoded in PHC string format. Two calls with the same password
// produce different hashes.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword recomputes the hash with the stored parameters and compares
// in constant time. A mismatch returns (false, nil); only a malformed stored
// hash returns an error.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// Throttle burns CPU equivalent to a few hash computations. Called on the
// credential-mismatch path so its latency is not measurably shorter than a
// successful verify.
func Throttle(password string) {
	for i := 0; i < throttleHashCount; i++ {
		_, _ = HashPassword(password)
	}
}
