package service

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zerolatency/doc-indexer/internal/domain"
)

// RankingConfig holds the composite score weights and snippet shaping knobs.
type RankingConfig struct {
	SimilarityWeight      float32
	TermFrequencyWeight   float32
	TitleBoostWeight      float32
	FreshnessWeight       float32
	FreshnessHalfLifeDays float32
	SnippetRadius         int
	SnippetMaxChars       int
}

// DefaultRankingConfig returns the standard weighting: vector similarity
// dominates, lexical and recency signals refine.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		SimilarityWeight:      0.6,
		TermFrequencyWeight:   0.2,
		TitleBoostWeight:      0.1,
		FreshnessWeight:       0.1,
		FreshnessHalfLifeDays: 30,
		SnippetRadius:         60,
		SnippetMaxChars:       240,
	}
}

// Validate checks that weights are non-negative and at least one is set.
func (c RankingConfig) Validate() error {
	if c.SimilarityWeight < 0 || c.TermFrequencyWeight < 0 ||
		c.TitleBoostWeight < 0 || c.FreshnessWeight < 0 {
		return domain.ErrInvalidRankingConfig
	}
	if c.SimilarityWeight+c.TermFrequencyWeight+c.TitleBoostWeight+c.FreshnessWeight == 0 {
		return domain.ErrInvalidRankingConfig
	}
	if c.FreshnessHalfLifeDays <= 0 {
		return domain.ErrInvalidRankingConfig
	}
	return nil
}

// ChunkHit is a vector store candidate entering the ranking stage.
type ChunkHit struct {
	ChunkID    string
	DocumentID string
	Title      string
	Path       string
	Heading    string
	ChunkIndex int
	Content    string
	Similarity float32
	UpdatedAt  time.Time
}

// RankingSignals exposes the per-signal breakdown of a ranked result.
type RankingSignals struct {
	Similarity    float32
	TermFrequency float32
	TitleMatch    float32
	Freshness     float32
}

// RankedResult is a search result after composite scoring.
type RankedResult struct {
	ChunkID    string
	DocumentID string
	Title      string
	Path       string
	Heading    string
	ChunkIndex int
	Snippet    string
	Score      float32
	Signals    RankingSignals
}

// Ranker orders vector store candidates by a weighted composite of
// similarity, lexical overlap, title match and recency, and attaches a
// highlighted snippet to each result.
type Ranker struct {
	cfg RankingConfig
}

// NewRanker builds a ranker, falling back to defaults for a zero config.
func NewRanker(cfg RankingConfig) (*Ranker, error) {
	if cfg == (RankingConfig{}) {
		cfg = DefaultRankingConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{cfg: cfg}, nil
}

// Rank scores and orders candidates. Ties on composite score keep the
// candidate order, which the vector store already sorted by similarity; a
// remaining tie falls back to chunk index. Scoring a candidate never fails,
// so an empty candidate slice simply yields an empty result slice.
func (r *Ranker) Rank(hits []ChunkHit, terms QueryTerms, now time.Time) []RankedResult {
	results := make([]RankedResult, 0, len(hits))
	for _, hit := range hits {
		signals := RankingSignals{
			Similarity:    clamp01(hit.Similarity),
			TermFrequency: r.termFrequency(hit.Content, terms),
			TitleMatch:    r.titleMatch(hit.Title, terms),
			Freshness:     r.freshness(hit.UpdatedAt, now),
		}

		score := r.cfg.SimilarityWeight*signals.Similarity +
			r.cfg.TermFrequencyWeight*signals.TermFrequency +
			r.cfg.TitleBoostWeight*signals.TitleMatch +
			r.cfg.FreshnessWeight*signals.Freshness

		results = append(results, RankedResult{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			Title:      hit.Title,
			Path:       hit.Path,
			Heading:    hit.Heading,
			ChunkIndex: hit.ChunkIndex,
			Snippet:    r.snippet(hit.Content, terms),
			Score:      score,
			Signals:    signals,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Signals.Similarity != results[j].Signals.Similarity {
			return results[i].Signals.Similarity > results[j].Signals.Similarity
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})

	return results
}

// termFrequency counts word-bounded, case-insensitive term occurrences,
// dampened so a handful of matches saturates the signal. Synonym expansions
// count at half weight.
func (r *Ranker) termFrequency(content string, terms QueryTerms) float32 {
	if len(terms.Terms) == 0 && len(terms.Expanded) == 0 {
		return 0
	}

	lower := strings.ToLower(content)
	var weighted float32
	for _, term := range terms.Terms {
		weighted += float32(countWordMatches(lower, term))
	}
	for _, term := range terms.Expanded {
		weighted += 0.5 * float32(countWordMatches(lower, term))
	}

	// Dampen: 1 match is a strong signal, 5+ saturates.
	score := weighted / 5
	return clamp01(score)
}

// titleMatch awards 0.2 per distinct query term appearing in the title,
// capped at 1. Expansions do not contribute.
func (r *Ranker) titleMatch(title string, terms QueryTerms) float32 {
	if title == "" {
		return 0
	}
	lower := strings.ToLower(title)

	var score float32
	for _, term := range terms.Terms {
		if countWordMatches(lower, term) > 0 {
			score += 0.2
		}
	}
	return clamp01(score)
}

// freshness applies exponential half-life decay to document age. Documents
// updated now score 1; each half-life halves the signal. A zero timestamp
// scores 0.
func (r *Ranker) freshness(updatedAt, now time.Time) float32 {
	if updatedAt.IsZero() {
		return 0
	}
	ageDays := now.Sub(updatedAt).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	decay := math.Exp(-math.Ln2 * ageDays / float64(r.cfg.FreshnessHalfLifeDays))
	return clamp01(float32(decay))
}

// snippet extracts windows around term matches, merges overlapping windows,
// joins them with an ellipsis and bolds matched terms. With no matches it
// falls back to the leading window of the content.
func (r *Ranker) snippet(content string, terms QueryTerms) string {
	runes := []rune(content)
	all := terms.AllTerms()

	var windows [][2]int
	lower := strings.ToLower(content)
	lowerRunes := []rune(lower)
	for _, term := range all {
		for _, pos := range wordMatchPositions(lowerRunes, term) {
			lo := pos - r.cfg.SnippetRadius
			if lo < 0 {
				lo = 0
			}
			hi := pos + len([]rune(term)) + r.cfg.SnippetRadius
			if hi > len(runes) {
				hi = len(runes)
			}
			windows = append(windows, [2]int{lo, hi})
		}
	}

	if len(windows) == 0 {
		end := r.cfg.SnippetMaxChars
		if end > len(runes) {
			end = len(runes)
		}
		return strings.TrimSpace(string(runes[:end]))
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i][0] < windows[j][0] })

	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w[0] <= last[1] {
			if w[1] > last[1] {
				last[1] = w[1]
			}
			continue
		}
		merged = append(merged, w)
	}

	var parts []string
	budget := r.cfg.SnippetMaxChars
	for _, w := range merged {
		if budget <= 0 {
			break
		}
		piece := strings.TrimSpace(string(runes[w[0]:w[1]]))
		if len([]rune(piece)) > budget {
			piece = strings.TrimSpace(string([]rune(piece)[:budget]))
		}
		budget -= len([]rune(piece))
		parts = append(parts, piece)
	}

	return highlightTerms(strings.Join(parts, " … "), all)
}

// highlightTerms wraps word-bounded term matches in double asterisks.
func highlightTerms(snippet string, terms []string) string {
	out := snippet
	for _, term := range terms {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, "**$0**")
	}
	return out
}

// countWordMatches counts word-bounded occurrences of term in lowercased
// text.
func countWordMatches(lower, term string) int {
	return len(wordMatchPositions([]rune(lower), term))
}

// wordMatchPositions returns the rune offsets of word-bounded occurrences of
// term inside the lowercased rune slice.
func wordMatchPositions(lowerRunes []rune, term string) []int {
	termRunes := []rune(strings.ToLower(term))
	if len(termRunes) == 0 || len(termRunes) > len(lowerRunes) {
		return nil
	}

	var positions []int
	for i := 0; i+len(termRunes) <= len(lowerRunes); i++ {
		if !runesEqual(lowerRunes[i:i+len(termRunes)], termRunes) {
			continue
		}
		if i > 0 && isWordRune(lowerRunes[i-1]) {
			continue
		}
		if end := i + len(termRunes); end < len(lowerRunes) && isWordRune(lowerRunes[end]) {
			continue
		}
		positions = append(positions, i)
	}
	return positions
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
