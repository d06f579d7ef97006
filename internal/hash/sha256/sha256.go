// Package sha256 derives content validators from rendered documents.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// etagBytes is how much of the digest goes into an ETag.
const etagBytes = 16

// Digest returns the hex SHA-256 digest of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong entity tag for body, quoted as HTTP requires.
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:etagBytes]) + `"`
}
