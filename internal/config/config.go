package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/zerolatency/doc-indexer/internal/service"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"doc-archive"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	ChunkMode            string `envconfig:"CHUNK_MODE" default:"structure"`
	ChunkMaxChars        int    `envconfig:"CHUNK_MAX_CHARS" default:"1200"`
	ChunkMinChars        int    `envconfig:"CHUNK_MIN_CHARS" default:"200"`
	ChunkOverlap         int    `envconfig:"CHUNK_OVERLAP" default:"150"`
	ChunkMaxHeadingDepth int    `envconfig:"CHUNK_MAX_HEADING_DEPTH" default:"4"`
	ChunkMaxChunks       int    `envconfig:"CHUNK_MAX_CHUNKS" default:"120"`

	RankSimilarityWeight    float32 `envconfig:"RANK_SIMILARITY_WEIGHT" default:"0.6"`
	RankTermFrequencyWeight float32 `envconfig:"RANK_TERM_FREQUENCY_WEIGHT" default:"0.2"`
	RankTitleBoostWeight    float32 `envconfig:"RANK_TITLE_BOOST_WEIGHT" default:"0.1"`
	RankFreshnessWeight     float32 `envconfig:"RANK_FRESHNESS_WEIGHT" default:"0.1"`
	RankFreshnessHalfLife   float32 `envconfig:"RANK_FRESHNESS_HALF_LIFE_DAYS" default:"30"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCIDX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// ChunkConfig maps the environment knobs onto a service chunk config.
func (c *Config) ChunkConfig() service.ChunkConfig {
	return service.ChunkConfig{
		Mode:            service.ChunkMode(c.ChunkMode),
		MaxChars:        c.ChunkMaxChars,
		MinChars:        c.ChunkMinChars,
		Overlap:         c.ChunkOverlap,
		MaxHeadingDepth: c.ChunkMaxHeadingDepth,
		MaxChunks:       c.ChunkMaxChunks,
	}
}

// RankingConfig maps the environment knobs onto a service ranking config.
func (c *Config) RankingConfig() service.RankingConfig {
	cfg := service.DefaultRankingConfig()
	cfg.SimilarityWeight = c.RankSimilarityWeight
	cfg.TermFrequencyWeight = c.RankTermFrequencyWeight
	cfg.TitleBoostWeight = c.RankTitleBoostWeight
	cfg.FreshnessWeight = c.RankFreshnessWeight
	cfg.FreshnessHalfLifeDays = c.RankFreshnessHalfLife
	return cfg
}
