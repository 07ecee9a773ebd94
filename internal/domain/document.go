package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

// DocType classifies the source format of a document
type DocType string

const (
	DocTypeMarkdown  DocType = "markdown"
	DocTypePlaintext DocType = "plaintext"
)

// Document represents an ingested document. A document is immutable once
// stored; re-ingesting the same path replaces it wholesale and invalidates
// its chunks.
type Document struct {
	ID          string
	Path        string
	Title       string
	Content     string
	ContentHash string
	DocType     DocType
	Tags        []string
	Embedding   []float32
	ModifiedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, docPath, content string, docType DocType, modifiedAt time.Time) *Document {
	now := time.Now().UTC()
	if modifiedAt.IsZero() {
		modifiedAt = now
	}
	return &Document{
		ID:         id,
		Path:       docPath,
		Title:      ExtractTitle(content, docPath),
		Content:    content,
		DocType:    docType,
		ModifiedAt: modifiedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ExtractTitle returns the first H1 heading within the leading lines of the
// content, falling back to the path stem.
func ExtractTitle(content, docPath string) string {
	lines := strings.SplitN(content, "\n", 11)
	for i, line := range lines {
		if i >= 10 {
			break
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}

	base := path.Base(docPath)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Path == "" {
		return fmt.Errorf("document Path is required")
	}

	if !utf8.ValidString(d.Content) {
		return ErrInvalidDocument
	}

	if !isValidDocType(d.DocType) {
		return fmt.Errorf("document DocType is invalid: %s", d.DocType)
	}

	return nil
}

// isValidDocType checks if a DocType is valid
func isValidDocType(t DocType) bool {
	switch t {
	case DocTypeMarkdown, DocTypePlaintext:
		return true
	}
	return false
}
