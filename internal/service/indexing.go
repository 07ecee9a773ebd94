package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zerolatency/doc-indexer/internal/domain"
	"github.com/zerolatency/doc-indexer/internal/telemetry"
)

// docEmbeddingMaxChars bounds the text sent for the document-level
// embedding; anything longer is truncated.
const docEmbeddingMaxChars = 6000

// IndexingDocumentRepository is the document surface the indexing pipeline
// needs.
type IndexingDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// IndexingChunkRepository persists chunk sets.
type IndexingChunkRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// EmbeddingClient generates embedding vectors for text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IndexingService turns a stored document into embedded, searchable chunks.
type IndexingService struct {
	documentRepo IndexingDocumentRepository
	chunkRepo    IndexingChunkRepository
	embedder     EmbeddingClient
	chunkCfg     ChunkConfig
}

// NewIndexingService creates an IndexingService. A zero chunk config falls
// back to defaults.
func NewIndexingService(
	documentRepo IndexingDocumentRepository,
	chunkRepo IndexingChunkRepository,
	embedder EmbeddingClient,
	chunkCfg ChunkConfig,
) (*IndexingService, error) {
	if chunkCfg == (ChunkConfig{}) {
		chunkCfg = DefaultChunkConfig()
	}
	if err := chunkCfg.Validate(); err != nil {
		return nil, err
	}
	return &IndexingService{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		embedder:     embedder,
		chunkCfg:     chunkCfg,
	}, nil
}

// IndexDocument chunks the document, embeds every chunk and the document
// itself, and atomically replaces the stored chunk set. Chunk quality is
// scored and logged but never blocks indexing.
func (s *IndexingService) IndexDocument(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.IndexDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	chunks, err := ChunkDocument(doc, s.chunkCfg)
	if err != nil {
		return fmt.Errorf("failed to chunk document %s: %w", documentID, err)
	}

	quality := EvaluateChunks(chunks, s.chunkCfg)
	log.Printf("indexing: document %s produced %d chunks (quality overall=%.2f coherence=%.2f completeness=%.2f size=%.2f context=%.2f)",
		documentID, len(chunks), quality.Overall(), quality.Coherence, quality.Completeness, quality.SizeScore, quality.ContextScore)

	for i := range chunks {
		embedding, err := s.embedder.GenerateEmbedding(ctx, embeddingInput(doc, &chunks[i]))
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of document %s: %w", i, documentID, err)
		}
		chunks[i].Embedding = embedding
	}

	if err := s.chunkRepo.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("failed to store chunks for document %s: %w", documentID, err)
	}

	docEmbedding, err := s.embedder.GenerateEmbedding(ctx, documentEmbeddingInput(doc))
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", documentID, err)
	}
	if err := s.documentRepo.UpdateEmbedding(ctx, documentID, docEmbedding); err != nil {
		return fmt.Errorf("failed to store embedding for document %s: %w", documentID, err)
	}

	return nil
}

// embeddingInput prefixes the chunk text with its title and heading trail so
// the vector carries document context.
func embeddingInput(doc *domain.Document, c *domain.Chunk) string {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteString("\n")
	}
	if len(c.HeadingPath) > 0 {
		b.WriteString(strings.Join(c.HeadingPath, " > "))
		b.WriteString("\n")
	}
	b.WriteString(c.Content)
	return b.String()
}

func documentEmbeddingInput(doc *domain.Document) string {
	text := doc.Content
	if runes := []rune(text); len(runes) > docEmbeddingMaxChars {
		text = string(runes[:docEmbeddingMaxChars])
	}
	if doc.Title != "" {
		return doc.Title + "\n" + text
	}
	return text
}
