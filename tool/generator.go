package tool

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateRequestID returns the id sent as X-Request-ID so backend logs can be matched
// with ours.
func GenerateRequestID() string {
	return GenerateRandomUUID()
}

// GenerateShortID returns a short hex id (8 chars) for local job handles.
func GenerateShortID() string {
	b := make([]byte, 4) // 4 bytes = 8 hex chars
	if _, err := rand.Read(b); err != nil {
		return GenerateRandomUUID()[:8] // fallback
	}
	return hex.EncodeToString(b)
}
