package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolatency/doc-indexer/internal/domain"
)

func testRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker(DefaultRankingConfig())
	require.NoError(t, err)
	return r
}

func hit(id string, sim float32, content string) ChunkHit {
	return ChunkHit{
		ChunkID:    id,
		DocumentID: "doc-" + id,
		Title:      "Untitled",
		Content:    content,
		Similarity: sim,
		UpdatedAt:  time.Now(),
	}
}

func TestNewRanker_InvalidConfig(t *testing.T) {
	_, err := NewRanker(RankingConfig{SimilarityWeight: -1, FreshnessHalfLifeDays: 30})
	assert.ErrorIs(t, err, domain.ErrInvalidRankingConfig)

	_, err = NewRanker(RankingConfig{FreshnessHalfLifeDays: 30})
	assert.ErrorIs(t, err, domain.ErrInvalidRankingConfig)

	_, err = NewRanker(RankingConfig{SimilarityWeight: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRankingConfig)
}

func TestRank_EmptyCandidates(t *testing.T) {
	results := testRanker(t).Rank(nil, ParseQuery("restart server"), time.Now())
	assert.Empty(t, results)
}

func TestRank_OrdersByCompositeScore(t *testing.T) {
	now := time.Now()
	terms := ParseQuery("restart server")

	hits := []ChunkHit{
		hit("a", 0.5, "nothing relevant in this text at all"),
		hit("b", 0.5, "to restart the server, run the restart command on the server"),
	}

	results := testRanker(t).Rank(hits, terms, now)
	require.Len(t, results, 2)

	assert.Equal(t, "b", results[0].ChunkID, "equal similarity, lexical overlap decides")
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[0].Signals.TermFrequency, results[1].Signals.TermFrequency)
}

func TestRank_SimilarityDominates(t *testing.T) {
	now := time.Now()
	terms := ParseQuery("deploy")

	hits := []ChunkHit{
		hit("close", 0.95, "unrelated prose without the word"),
		hit("far", 0.30, "deploy deploy deploy deploy deploy"),
	}

	results := testRanker(t).Rank(hits, terms, now)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].ChunkID)
}

func TestRank_TitleBoost(t *testing.T) {
	now := time.Now()
	terms := ParseQuery("deployment guide")

	plain := hit("plain", 0.5, "body text")
	titled := hit("titled", 0.5, "body text")
	titled.Title = "Deployment Guide"

	results := testRanker(t).Rank([]ChunkHit{plain, titled}, terms, now)
	require.Len(t, results, 2)

	assert.Equal(t, "titled", results[0].ChunkID)
	assert.InDelta(t, 0.4, results[0].Signals.TitleMatch, 0.001)
	assert.Zero(t, results[1].Signals.TitleMatch)
}

func TestRank_FreshnessDecay(t *testing.T) {
	now := time.Now()
	r := testRanker(t)

	fresh := r.freshness(now, now)
	halfLife := r.freshness(now.AddDate(0, 0, -30), now)
	old := r.freshness(now.AddDate(-2, 0, 0), now)

	assert.InDelta(t, 1.0, fresh, 0.001)
	assert.InDelta(t, 0.5, halfLife, 0.01)
	assert.Less(t, old, float32(0.01))
	assert.Zero(t, r.freshness(time.Time{}, now))
}

func TestRank_TermFrequencyDampened(t *testing.T) {
	r := testRanker(t)
	terms := ParseQuery("cache")

	once := r.termFrequency("the cache layer", terms)
	many := r.termFrequency(strings.Repeat("cache ", 50), terms)

	assert.Greater(t, once, float32(0))
	assert.Equal(t, float32(1), many, "repetition saturates instead of growing unbounded")
}

func TestRank_TermFrequencyWordBounded(t *testing.T) {
	r := testRanker(t)
	terms := ParseQuery("cache")

	assert.Zero(t, r.termFrequency("cached caches cachette", terms), "substrings do not match")
	assert.Greater(t, r.termFrequency("the cache, warmed.", terms), float32(0), "punctuation is a boundary")
}

func TestRank_SnippetHighlightsAndMerges(t *testing.T) {
	r := testRanker(t)
	terms := ParseQuery("restart server")

	content := "Before anything else, restart the server carefully. " + strings.Repeat("filler text ", 40)
	snippet := r.snippet(content, terms)

	assert.Contains(t, snippet, "**restart**")
	assert.Contains(t, snippet, "**server**")
	// Overlapping match windows merge into one span, no ellipsis between them.
	assert.NotContains(t, snippet, "…")
}

func TestRank_SnippetSeparatesDistantMatches(t *testing.T) {
	r := testRanker(t)
	terms := ParseQuery("alpha omega")

	content := "alpha starts here. " + strings.Repeat("middle padding words ", 30) + "omega ends here."
	snippet := r.snippet(content, terms)

	assert.Contains(t, snippet, "**alpha**")
	assert.Contains(t, snippet, "**omega**")
	assert.Contains(t, snippet, "…")
}

func TestRank_SnippetFallbackWithoutMatches(t *testing.T) {
	r := testRanker(t)
	terms := ParseQuery("zzz")

	content := strings.Repeat("plain document text ", 30)
	snippet := r.snippet(content, terms)

	assert.NotEmpty(t, snippet)
	assert.NotContains(t, snippet, "**")
	assert.LessOrEqual(t, len([]rune(snippet)), r.cfg.SnippetMaxChars)
}

func TestRank_TieBreaksByChunkIndex(t *testing.T) {
	now := time.Now()
	a := hit("a", 0.5, "same text")
	a.ChunkIndex = 3
	b := hit("b", 0.5, "same text")
	b.ChunkIndex = 1

	results := testRanker(t).Rank([]ChunkHit{a, b}, ParseQuery("nomatch"), now)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ChunkID)
}
