//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolatency/doc-indexer/internal/service"
	"github.com/zerolatency/doc-indexer/internal/testutil"
)

func TestSearchLogRepository_Create(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchLogRepository(pool)

	after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := &service.SearchLogEntry{
		Query:       "postgres connection pooling",
		Terms:       []string{"postgres", "connection", "pooling"},
		Filters:     service.SearchFilters{PathPrefix: "docs/", After: &after},
		ResultCount: 4,
		TopScore:    0.83,
		TookMs:      12,
	}
	require.NoError(t, repo.Create(ctx, entry))

	var (
		query       string
		termsJSON   []byte
		filtersJSON []byte
		resultCount int
		topScore    float32
		durationMs  int64
	)
	err := pool.QueryRow(ctx,
		`SELECT query, terms, filters, result_count, top_score, duration_ms FROM search_logs`,
	).Scan(&query, &termsJSON, &filtersJSON, &resultCount, &topScore, &durationMs)
	require.NoError(t, err)

	assert.Equal(t, "postgres connection pooling", query)
	assert.JSONEq(t, `["postgres","connection","pooling"]`, string(termsJSON))
	assert.JSONEq(t, `{"path_prefix":"docs/","after":"2024-06-01T00:00:00Z"}`, string(filtersJSON))
	assert.Equal(t, 4, resultCount)
	assert.InDelta(t, 0.83, topScore, 0.001)
	assert.Equal(t, int64(12), durationMs)
}

func TestSearchLogRepository_EmptyFilters(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchLogRepository(pool)

	require.NoError(t, repo.Create(ctx, &service.SearchLogEntry{
		Query: "bare query",
		Terms: []string{"bare", "query"},
	}))

	var filtersJSON []byte
	err := pool.QueryRow(ctx, `SELECT filters FROM search_logs`).Scan(&filtersJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(filtersJSON))
}
