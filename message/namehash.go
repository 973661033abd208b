package message

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NameHash computes the PII-safe representation of a party name: NFKC
// normalization, case folding, whitespace collapse, then SHA-256 (§3,
// §8's name-hash property). The same logical name always hashes to the
// same value; distinct names (modulo case/whitespace) hash differently.
func NameHash(name string) string {
	normalized := norm.NFKC.String(name)
	folded := strings.ToLower(normalized)
	collapsed := collapseWhitespace(folded)
	sum := sha256.Sum256([]byte(collapsed))
	return hex.EncodeToString(sum[:])
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
