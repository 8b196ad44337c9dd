// Package credential derives and verifies salted password hashes.
//
// Hashes are PBKDF2-HMAC-SHA256 digests over the UTF-8 password with the
// hex salt string used verbatim as the KDF salt. Both the digest and the
// salt are stored hex encoded in the users table.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor.
	Iterations = 100_000
	// KeyLength is the derived key size in bytes (the SHA-256 output size).
	KeyLength = sha256.Size
	// SaltBytes is the number of random bytes in a generated salt.
	SaltBytes = 16
)

// Credential is a derived password hash together with the salt used.
type Credential struct {
	Hash string
	Salt string
}

// Hash derives a credential for password. An empty salt means "generate one".
// Hash never fails: any string, including the empty one, is a valid input.
func Hash(password, salt string) Credential {
	if salt == "" {
		salt = NewSalt()
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha256.New)
	return Credential{
		Hash: hex.EncodeToString(key),
		Salt: salt,
	}
}

// Verify reports whether password hashes to storedHash under salt.
func Verify(password, storedHash, salt string) bool {
	candidate := Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate.Hash), []byte(storedHash)) == 1
}

// NewSalt returns SaltBytes of randomness, hex encoded.
func NewSalt() string {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read does not return errors on supported platforms.
		panic("credential: read random salt: " + err.Error())
	}
	return hex.EncodeToString(b)
}
