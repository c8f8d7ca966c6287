package pipeline

import (
	"strings"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/rag"
	"github.com/Egham-7/pitchside/internal/utils"
)

const previewRunes = 200

func buildUserPrompt(query, reference, live string) string {
	buf := utils.Get()
	defer utils.Put(buf)

	if live != "" {
		buf.WriteString("Live data:\n")
		buf.WriteString(live)
		buf.WriteString("\n\n")
	}
	if reference != "" {
		buf.WriteString("Reference material:\n")
		buf.WriteString(reference)
		buf.WriteString("\n\n")
	}
	if live == "" && reference == "" {
		return query
	}
	buf.WriteString("Question: ")
	buf.WriteString(query)
	return buf.String()
}

func formatReference(results []models.SearchResult, maxChars int) string {
	return rag.FormatContext(results, maxChars)
}

func sourceIDs(results []models.SearchResult) []string {
	return rag.SourceIDs(results)
}

func splitModel(spec, defaultProvider string) (string, string, error) {
	return utils.SplitModelSpec(spec, defaultProvider)
}

func joinPath(path []models.PipelineState) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}

func previewOf(query string) string {
	r := []rune(strings.TrimSpace(query))
	if len(r) <= previewRunes {
		return string(r)
	}
	return string(r[:previewRunes])
}
