package rag

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Egham-7/pitchside/internal/models"
)

type jsonlDocument struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

// ReadJSONL reads one document per line. "text" is accepted as an alias of
// "content"; blank lines are ignored.
func ReadJSONL(r io.Reader) ([]models.KnowledgeDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var docs []models.KnowledgeDocument
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var d jsonlDocument
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		content := d.Content
		if content == "" {
			content = d.Text
		}
		docs = append(docs, models.KnowledgeDocument{
			ID:       d.ID,
			Title:    d.Title,
			Content:  content,
			Source:   d.Source,
			Metadata: d.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
