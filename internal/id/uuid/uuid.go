// Package uuid provides identifier helpers built on google/uuid.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// canonicalLen is the length of the hyphenated 8-4-4-4-12 form.
const canonicalLen = 36

// IsCanonical reports whether s is a hyphenated 8-4-4-4-12 hex identifier.
// Case is ignored. The urn:uuid:, braced and unhyphenated forms that
// uuid.Parse also accepts are rejected.
func IsCanonical(s string) bool {
	if len(s) != canonicalLen {
		return false
	}
	return uuid.Validate(s) == nil
}

// Generator creates UUID v7 strings.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
