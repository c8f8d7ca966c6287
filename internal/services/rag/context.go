package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/utils"
)

const defaultMaxContextChars = 6000

// FormatContext renders results as a numbered reference block, stopping
// before the block would exceed maxChars runes.
func FormatContext(results []models.SearchResult, maxChars int) string {
	if len(results) == 0 {
		return ""
	}
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}

	buf := utils.Get()
	defer utils.Put(buf)

	used := 0
	for i, r := range results {
		var entry strings.Builder
		fmt.Fprintf(&entry, "[%d]", i+1)
		if r.Title != "" {
			entry.WriteString(" " + r.Title)
		}
		if src := r.Metadata["source"]; src != "" {
			fmt.Fprintf(&entry, " (%s)", src)
		}
		entry.WriteString("\n" + strings.TrimSpace(r.Document) + "\n\n")

		n := utf8.RuneCountInString(entry.String())
		if used+n > maxChars && used > 0 {
			break
		}
		buf.WriteString(entry.String())
		used += n
	}
	return strings.TrimSpace(buf.String())
}

// SourceIDs lists the ids of results in rank order.
func SourceIDs(results []models.SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}
