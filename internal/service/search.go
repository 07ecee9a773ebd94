package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zerolatency/doc-indexer/internal/telemetry"
)

const (
	defaultSearchLimit  = 10
	maxSearchLimit      = 50
	minCandidateLimit   = 20
	maxCandidateLimit   = 200
	candidateMultiplier = 4
)

// SearchFilters narrows the candidate set before ranking.
type SearchFilters struct {
	PathPrefix string
	DocType    string
	After      *time.Time
	Before     *time.Time
}

// SearchInput is one search request.
type SearchInput struct {
	Query   string
	Limit   int
	Filters SearchFilters
}

// SearchOutput is the ranked response for one query.
type SearchOutput struct {
	Query     string
	Results   []RankedResult
	TotalHits int
	TookMs    int64
}

// SearchChunkRepository retrieves candidate chunks by vector similarity.
type SearchChunkRepository interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]ChunkHit, error)
}

// SearchLogRepository records executed searches. Logging failures never
// surface to the caller.
type SearchLogRepository interface {
	Create(ctx context.Context, entry *SearchLogEntry) error
}

// SearchLogEntry captures one executed search for later analysis.
type SearchLogEntry struct {
	Query       string
	Terms       []string
	Filters     SearchFilters
	ResultCount int
	TopScore    float32
	TookMs      int64
	CreatedAt   time.Time
}

// SearchService embeds the query, pulls similarity candidates and reranks
// them with lexical and recency signals.
type SearchService struct {
	chunkRepo SearchChunkRepository
	logRepo   SearchLogRepository
	embedder  EmbeddingClient
	ranker    *Ranker
}

// NewSearchService creates a SearchService. logRepo may be nil to disable
// search logging.
func NewSearchService(
	chunkRepo SearchChunkRepository,
	logRepo SearchLogRepository,
	embedder EmbeddingClient,
	ranker *Ranker,
) *SearchService {
	return &SearchService{
		chunkRepo: chunkRepo,
		logRepo:   logRepo,
		embedder:  embedder,
		ranker:    ranker,
	}
}

// Search runs one query end to end. An empty or whitespace query returns an
// empty result set without error.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Query:     input.Query,
		Operation: "search",
	})
	defer span.End()

	started := time.Now()

	terms := ParseQuery(input.Query)
	if terms.IsEmpty() {
		return &SearchOutput{Query: input.Query}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, terms.Original)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.chunkRepo.SearchByEmbedding(ctx, embedding, input.Filters, candidateLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	ranked := s.ranker.Rank(hits, terms, time.Now())
	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := &SearchOutput{
		Query:     input.Query,
		Results:   ranked,
		TotalHits: total,
		TookMs:    time.Since(started).Milliseconds(),
	}

	s.logSearch(ctx, input, terms, out)

	return out, nil
}

// candidateLimit oversamples the vector store so reranking has room to
// reorder, clamped to protect the database.
func candidateLimit(limit int) int {
	n := limit * candidateMultiplier
	if n < minCandidateLimit {
		n = minCandidateLimit
	}
	if n > maxCandidateLimit {
		n = maxCandidateLimit
	}
	return n
}

func (s *SearchService) logSearch(ctx context.Context, input SearchInput, terms QueryTerms, out *SearchOutput) {
	if s.logRepo == nil {
		return
	}

	entry := &SearchLogEntry{
		Query:       input.Query,
		Terms:       terms.AllTerms(),
		Filters:     input.Filters,
		ResultCount: len(out.Results),
		TookMs:      out.TookMs,
		CreatedAt:   time.Now().UTC(),
	}
	if len(out.Results) > 0 {
		entry.TopScore = out.Results[0].Score
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		log.Printf("search: failed to record search log: %v", err)
	}
}
