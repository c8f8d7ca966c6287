package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// KnowledgeDocument is a retrievable passage for answer generation.
type KnowledgeDocument struct {
	ID        string      `gorm:"primaryKey;size:64" json:"id"`
	Title     string      `gorm:"size:255;default:''" json:"title"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Source    string      `gorm:"size:255;index;default:''" json:"source"`
	Metadata  DocMetadata `json:"metadata"`
	Embedding Vector      `json:"-"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}

// SearchResult is one retrieval hit: id, document, metadata and distance.
type SearchResult struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Title    string            `json:"title,omitzero"`
	Metadata map[string]string `json:"metadata,omitzero"`
	Distance float64           `json:"distance"`
}

// DocMetadata is stored as a JSON object of strings.
type DocMetadata map[string]string

func (m DocMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *DocMetadata) Scan(value any) error {
	raw, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("doc metadata: %w", err)
	}
	if len(raw) == 0 {
		*m = DocMetadata{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

func (DocMetadata) GormDataType() string {
	return "json"
}

func (DocMetadata) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return textColumnType(db)
}

// Vector is an embedding stored as a JSON array.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]float32(v))
	return string(b), err
}

func (v *Vector) Scan(value any) error {
	raw, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if len(raw) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]float32)(v))
}

func (Vector) GormDataType() string {
	return "json"
}

func (Vector) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return textColumnType(db)
}

func scanBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

func textColumnType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	case "clickhouse":
		return "String"
	default:
		return "TEXT"
	}
}
