package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zerolatency/doc-indexer/internal/domain"
	"github.com/zerolatency/doc-indexer/internal/telemetry"
)

// ProcessorDocumentRepository is the read surface the processor needs
// outside a transaction.
type ProcessorDocumentRepository interface {
	GetByPath(ctx context.Context, path string) (*domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// ArchiveStore keeps raw document bodies in object storage.
type ArchiveStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
}

// IngestInput describes one document to ingest.
type IngestInput struct {
	Path       string
	Content    string
	DocType    domain.DocType
	Tags       []string
	ModifiedAt time.Time
}

// IngestResult reports what ingestion did with a document.
type IngestResult struct {
	Document *domain.Document
	// Unchanged is true when the content hash matched the stored document
	// and no reindex was enqueued.
	Unchanged bool
}

// ProcessorService owns the ingest path: validation, dedup by content hash,
// persistence and reindex scheduling. The archive is optional; when
// configured, raw bodies are mirrored to object storage on a best-effort
// basis.
type ProcessorService struct {
	documentRepo ProcessorDocumentRepository
	txRunner     TxRunnerInterface
	archive      ArchiveStore
}

// NewProcessorService creates a ProcessorService. archive may be nil.
func NewProcessorService(
	documentRepo ProcessorDocumentRepository,
	txRunner TxRunnerInterface,
	archive ArchiveStore,
) *ProcessorService {
	return &ProcessorService{
		documentRepo: documentRepo,
		txRunner:     txRunner,
		archive:      archive,
	}
}

// Ingest validates and stores a document, then enqueues an index job in the
// same transaction. Re-ingesting a path with identical content is a no-op;
// changed content replaces the document wholesale and keeps its ID.
func (s *ProcessorService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProcessorService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	if input.Path == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "ingest requires a path", domain.ErrMissingRequiredField)
	}
	if !utf8.ValidString(input.Content) {
		return nil, domain.ErrInvalidDocument
	}
	if input.DocType == "" {
		input.DocType = domain.DocTypeMarkdown
	}

	hash := contentHash(input.Content)

	existing, err := s.documentRepo.GetByPath(ctx, input.Path)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up document by path %s: %w", input.Path, err)
	}

	if existing != nil && existing.ContentHash == hash {
		return &IngestResult{Document: existing, Unchanged: true}, nil
	}

	id := uuid.NewString()
	if existing != nil {
		id = existing.ID
	}

	doc := domain.NewDocument(id, input.Path, input.Content, input.DocType, input.ModifiedAt)
	doc.ContentHash = hash
	doc.Tags = input.Tags
	if existing != nil {
		doc.CreatedAt = existing.CreatedAt
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}
		job := domain.NewIndexJob(uuid.NewString(), doc.ID)
		if err := repos.IndexJobs().Create(ctx, job); err != nil {
			return fmt.Errorf("failed to enqueue index job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.archivePut(ctx, doc)

	return &IngestResult{Document: doc}, nil
}

// Delete removes a document. Stored chunks and pending jobs go with it via
// foreign keys; the archived body is removed best-effort.
func (s *ProcessorService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "ProcessorService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Documents().Delete(ctx, doc.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	if s.archive != nil {
		if err := s.archive.DeleteObject(ctx, archiveKey(doc.ID)); err != nil {
			log.Printf("processor: failed to delete archived body for document %s: %v", doc.ID, err)
		}
	}

	return nil
}

func (s *ProcessorService) archivePut(ctx context.Context, doc *domain.Document) {
	if s.archive == nil {
		return
	}
	contentType := "text/plain; charset=utf-8"
	if doc.DocType == domain.DocTypeMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	if err := s.archive.PutObject(ctx, archiveKey(doc.ID), []byte(doc.Content), contentType); err != nil {
		log.Printf("processor: failed to archive document %s: %v", doc.ID, err)
	}
}

func archiveKey(documentID string) string {
	return "documents/" + documentID
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func isNotFound(err error) bool {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code == domain.ErrCodeNotFound
	}
	return false
}
