package service

import (
	"context"

	"github.com/zerolatency/doc-indexer/internal/domain"
)

// TxDocumentRepository is the document surface available inside a
// transaction.
type TxDocumentRepository interface {
	Upsert(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id string) error
}

// TxIndexJobRepository is the index job surface available inside a
// transaction.
type TxIndexJobRepository interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// TxRepositories exposes repositories bound to one transaction.
type TxRepositories interface {
	Documents() TxDocumentRepository
	IndexJobs() TxIndexJobRepository
}

// TxRunnerInterface runs a function inside a database transaction,
// committing on nil and rolling back on error.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
