package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/zerolatency/doc-indexer/internal/domain"
	"github.com/zerolatency/doc-indexer/internal/service"
)

// ChunkRepository handles persistence and similarity retrieval of document
// chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes the stored chunk set of a document and inserts the
// new one. An empty set just clears.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := c.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(document_id, chunk_index, content, start_offset, end_offset, heading, heading_path, chunk_type, embedding, created_at, updated_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			documentID,
			c.Index,
			c.Content,
			c.StartOffset,
			c.EndOffset,
			nullableString(c.Heading),
			c.HeadingPath,
			c.Type,
			pgvector.NewVector(c.Embedding),
			createdAt,
			updatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByDocument returns a document's chunks in index order.
func (r *ChunkRepository) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, start_offset, end_offset, heading, heading_path, chunk_type, created_at, updated_at
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var heading pgtype.Text
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.StartOffset, &c.EndOffset, &heading, &c.HeadingPath, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if heading.Valid {
			c.Heading = heading.String
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// SearchByEmbedding pulls the closest chunks to the query vector, joined
// with their document for title, path and recency. Filters narrow the scan
// before the similarity ordering applies.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, filters service.SearchFilters, limit int) ([]service.ChunkHit, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT c.id, c.document_id, d.title, d.path, c.heading, c.chunk_index, c.content,
		       1.0 / (1.0 + (c.embedding <=> $1)) AS score,
		       d.updated_at
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL`
	args := []any{pgvector.NewVector(embedding)}

	if filters.PathPrefix != "" {
		args = append(args, filters.PathPrefix+"%")
		query += ` AND d.path LIKE $` + argn(len(args))
	}
	if filters.DocType != "" {
		args = append(args, filters.DocType)
		query += ` AND d.doc_type = $` + argn(len(args))
	}
	if filters.After != nil {
		args = append(args, *filters.After)
		query += ` AND d.modified_at >= $` + argn(len(args))
	}
	if filters.Before != nil {
		args = append(args, *filters.Before)
		query += ` AND d.modified_at <= $` + argn(len(args))
	}

	args = append(args, limit)
	query += `
		ORDER BY score DESC
		LIMIT $` + argn(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]service.ChunkHit, 0)
	for rows.Next() {
		var hit service.ChunkHit
		var heading pgtype.Text
		var score float64
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Title, &hit.Path, &heading, &hit.ChunkIndex, &hit.Content, &score, &hit.UpdatedAt); err != nil {
			return nil, err
		}
		if heading.Valid {
			hit.Heading = heading.String
		}
		hit.Similarity = float32(score)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

func argn(n int) string {
	return strconv.Itoa(n)
}
