package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable identifier for a content item from its source
// and title. Case and surrounding whitespace are ignored so the same headline
// from the same feed always maps to one fingerprint.
func Fingerprint(source, title string) string {
	norm := strings.ToLower(strings.TrimSpace(source)) + "|" + strings.ToLower(strings.TrimSpace(title))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:16])
}
