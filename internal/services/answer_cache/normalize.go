package answer_cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	defaultMaxQueryChars = 500
	queryHashPrefix      = "qa_"
	previewChars         = 100
)

// Normalize lowercases a query, trims it, collapses inner whitespace and caps
// it at maxChars runes. maxChars <= 0 uses the default cap.
func Normalize(query string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultMaxQueryChars
	}
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return truncateRunes(norm, maxChars)
}

// QueryHash derives the entry id from an already normalized query.
func QueryHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return queryHashPrefix + hex.EncodeToString(sum[:])[:32]
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if t := truncateRunes(s, previewChars); len(t) < len(s) {
		return t + "..."
	}
	return s
}
