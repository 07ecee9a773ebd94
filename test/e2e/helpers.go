//go:build e2e

package e2e

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/zerolatency/doc-indexer/internal/jobs"
	"github.com/zerolatency/doc-indexer/internal/repository"
	"github.com/zerolatency/doc-indexer/internal/service"
	"github.com/zerolatency/doc-indexer/internal/testutil"
)

const embeddingDims = 1536

// PipelineEnv wires the full ingest-index-search pipeline against real
// Postgres, with a deterministic bag-of-words embedder in place of the
// external embedding API.
type PipelineEnv struct {
	Ctx       context.Context
	Pool      *pgxpool.Pool
	Processor *service.ProcessorService
	Indexer   *jobs.IndexWorker
	Search    *service.SearchService
	cleanup   func()
}

func SetupPipelineEnv(t *testing.T) *PipelineEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	embedder := &bagOfWordsEmbedder{}

	processor := service.NewProcessorService(documentRepo, txRunner, nil)

	indexingSvc, err := service.NewIndexingService(documentRepo, chunkRepo, embedder, service.ChunkConfig{})
	require.NoError(t, err)

	ranker, err := service.NewRanker(service.DefaultRankingConfig())
	require.NoError(t, err)

	return &PipelineEnv{
		Ctx:       ctx,
		Pool:      pool,
		Processor: processor,
		Indexer:   jobs.NewIndexWorker(indexJobRepo, indexingSvc),
		Search:    service.NewSearchService(chunkRepo, searchLogRepo, embedder, ranker),
		cleanup: func() {
			pool.Close()
			pgC.Terminate(ctx)
		},
	}
}

func (e *PipelineEnv) Cleanup() {
	e.cleanup()
}

// DrainJobs processes pending index jobs until the queue is empty.
func (e *PipelineEnv) DrainJobs(t *testing.T) {
	for i := 0; i < 10; i++ {
		require.NoError(t, e.Indexer.ProcessJobs(e.Ctx))

		var pending int
		require.NoError(t, e.Pool.QueryRow(e.Ctx,
			`SELECT COUNT(*) FROM index_jobs WHERE status IN ('pending', 'processing')`,
		).Scan(&pending))
		if pending == 0 {
			return
		}
	}
	t.Fatal("index jobs did not drain")
}

// bagOfWordsEmbedder hashes words into a fixed-size vector so that texts
// sharing vocabulary land close under cosine distance. Deterministic, no
// network.
type bagOfWordsEmbedder struct{}

func (e *bagOfWordsEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,:;!?#*`()[]\"'")))
		v[h.Sum32()%embeddingDims]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}
