package domain

import "time"

// ChunkType classifies the dominant structural element of a chunk.
type ChunkType string

const (
	ChunkTypeHeading   ChunkType = "heading"
	ChunkTypeParagraph ChunkType = "paragraph"
	ChunkTypeCodeBlock ChunkType = "code_block"
	ChunkTypeList      ChunkType = "list"
	ChunkTypeTable     ChunkType = "table"
)

// Chunk represents a contiguous segment of one document, the unit of
// embedding and retrieval. Offsets are rune offsets into the document
// content; Content is the exact text span between them. Indices within a
// document are contiguous and strictly increasing.
type Chunk struct {
	ID          string
	DocumentID  string
	Index       int
	Content     string
	StartOffset int
	EndOffset   int
	Heading     string
	HeadingPath []string
	Type        ChunkType
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
