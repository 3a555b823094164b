package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// fingerprintNamespace scopes input fingerprints so identical bytes always map to the same UUID
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sigcompare/input"))

// Fingerprint identifies an input table by its content
type Fingerprint string

// NewFingerprint derives a name-based (v5) UUID from raw input bytes
func NewFingerprint(content []byte) Fingerprint {
	return Fingerprint(uuid.NewSHA1(fingerprintNamespace, content).String())
}

// String returns the string representation
func (f Fingerprint) String() string {
	return string(f)
}

// IsEmpty checks if the fingerprint is empty
func (f Fingerprint) IsEmpty() bool {
	return f == ""
}

// ParseFingerprint parses a string into a Fingerprint
func ParseFingerprint(s string) (Fingerprint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("fingerprint cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	if id.Version() != 5 {
		return "", fmt.Errorf("invalid fingerprint %q: not a content fingerprint", s)
	}
	return Fingerprint(id.String()), nil
}
