package security

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	uuid "github.com/google/uuid"
)

const errorCodeLength = 6

// NewIdentityToken mints the opaque per-account identifier referenced by
// dependent hardware-binding and auth-session records. Always a random
// UUIDv4; never derived from the username.
func NewIdentityToken() string {
	return uuid.NewString()
}

// GenerateErrorCode returns a short uppercase hex token used to correlate a
// user-visible failure with a server log entry. Not cryptographically
// meaningful; collisions are acceptable.
func GenerateErrorCode() string {
	buf := make([]byte, errorCodeLength/2+1)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable anyway; the code only
		// labels a log line.
		return strings.Repeat("0", errorCodeLength)
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:errorCodeLength]
}
