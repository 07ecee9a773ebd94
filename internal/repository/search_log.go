package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zerolatency/doc-indexer/internal/service"
)

// SearchLogRepository records executed searches for relevance analysis.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) Create(ctx context.Context, entry *service.SearchLogEntry) error {
	filters := map[string]any{}
	if entry.Filters.PathPrefix != "" {
		filters["path_prefix"] = entry.Filters.PathPrefix
	}
	if entry.Filters.DocType != "" {
		filters["doc_type"] = entry.Filters.DocType
	}
	if entry.Filters.After != nil {
		filters["after"] = entry.Filters.After.UTC().Format(time.RFC3339)
	}
	if entry.Filters.Before != nil {
		filters["before"] = entry.Filters.Before.UTC().Format(time.RFC3339)
	}

	filtersJSON, _ := json.Marshal(filters)
	termsJSON, _ := json.Marshal(entry.Terms)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO search_logs (query, terms, filters, result_count, top_score, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Query,
		termsJSON,
		filtersJSON,
		entry.ResultCount,
		entry.TopScore,
		entry.TookMs,
		createdAt,
	)
	return err
}
