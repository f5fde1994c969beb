// Package hashing computes the content identity used for deduplication.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the SHA-256 digest of the canonical plaintext bytes as
// lowercase hex. Identity keys on canonical content only: filename, owner
// and the parameters that happened to produce the bytes play no part.
func Digest(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
