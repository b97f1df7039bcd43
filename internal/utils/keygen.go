package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateDocumentKey generates a random object key under the given prefix.
// Format: prefix/userID/randomhex.ext
// Example: applications/license/42/a1b2c3d4e5f6.pdf
func GenerateDocumentKey(prefix string, userID int, ext string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d/%s.%s", prefix, userID, hex.EncodeToString(b), ext), nil
}
