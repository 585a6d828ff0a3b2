package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintContentPrefix is the number of content code points that feed
// the fingerprint. Entries whose content only differs past this point share
// a fingerprint and are treated as duplicates.
const FingerprintContentPrefix = 4000

// fingerprintSeparator joins the hashed fields.
const fingerprintSeparator = "|"

// Fingerprint derives the external identity of a record from its semantic
// fields. Only category, title, url and the content prefix are hashed.
// The result is 64 lowercase hex characters.
func Fingerprint(category, title, url, content string) string {
	key := strings.Join([]string{category, title, url, contentPrefix(content)}, fingerprintSeparator)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// EntryFingerprint derives the fingerprint of e from its fields.
func EntryFingerprint(e *Entry) string {
	return Fingerprint(e.Category, e.Title, e.URL, e.Content)
}

// contentPrefix returns the first FingerprintContentPrefix runes of content.
func contentPrefix(content string) string {
	n := 0
	for i := range content {
		if n == FingerprintContentPrefix {
			return content[:i]
		}
		n++
	}
	return content
}
