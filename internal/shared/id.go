package shared

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// NewID returns a URL-safe random identifier derived from size random bytes.
func NewID(size int) string {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		// rand failure is effectively fatal; fall back to a UUID string.
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
