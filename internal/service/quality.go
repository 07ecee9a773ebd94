package service

import (
	"strings"

	"github.com/zerolatency/doc-indexer/internal/domain"
)

// ChunkQuality is a diagnostic score for a chunk set. It is advisory
// telemetry only: the indexing pipeline logs it and nothing ever blocks or
// reorders on it.
//
// Each signal is in [0,1]:
//   - Coherence: terminal punctuation and line structure of the chunk.
//   - Completeness: whether the chunk ends at a natural boundary, with a
//     proportional penalty for chunks below MinChars.
//   - SizeScore: distance of the chunk length from the midpoint of
//     [MinChars, MaxChars], degrading gradually outside the bounds.
//   - ContextScore: depth and clarity of the preserved heading path.
//
// Overall is the arithmetic mean of the four.
type ChunkQuality struct {
	Coherence    float32
	Completeness float32
	SizeScore    float32
	ContextScore float32
}

// Overall returns the combined quality score.
func (q ChunkQuality) Overall() float32 {
	return (q.Coherence + q.Completeness + q.SizeScore + q.ContextScore) / 4
}

// EvaluateChunk scores a single chunk against the chunking configuration.
func EvaluateChunk(c domain.Chunk, cfg ChunkConfig) ChunkQuality {
	return ChunkQuality{
		Coherence:    coherenceScore(c.Content),
		Completeness: completenessScore(c.Content, cfg),
		SizeScore:    sizeScore(c.Content, cfg),
		ContextScore: contextScore(c.HeadingPath),
	}
}

// EvaluateChunks scores a chunk set as the mean of per-chunk signals. An
// empty set scores zero.
func EvaluateChunks(chunks []domain.Chunk, cfg ChunkConfig) ChunkQuality {
	if len(chunks) == 0 {
		return ChunkQuality{}
	}

	var total ChunkQuality
	for _, c := range chunks {
		q := EvaluateChunk(c, cfg)
		total.Coherence += q.Coherence
		total.Completeness += q.Completeness
		total.SizeScore += q.SizeScore
		total.ContextScore += q.ContextScore
	}

	n := float32(len(chunks))
	return ChunkQuality{
		Coherence:    total.Coherence / n,
		Completeness: total.Completeness / n,
		SizeScore:    total.SizeScore / n,
		ContextScore: total.ContextScore / n,
	}
}

func coherenceScore(content string) float32 {
	trimmed := strings.TrimRight(content, " \t\n")
	lines := strings.Count(trimmed, "\n") + 1

	endsSentence := strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
	structured := strings.Contains(trimmed, "\n") || lines == 1

	var score float32
	if endsSentence {
		score += 0.4
	}
	if structured {
		score += 0.3
	}
	if len(trimmed) > 0 {
		score += 0.3
	}
	if score > 1 {
		score = 1
	}
	return score
}

func completenessScore(content string, cfg ChunkConfig) float32 {
	n := len([]rune(content))
	if cfg.MinChars > 0 && n < cfg.MinChars {
		return float32(n) / float32(cfg.MinChars)
	}

	trimmed := strings.TrimRight(content, " \t")
	if strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "\n") ||
		strings.HasSuffix(trimmed, "```") ||
		strings.HasSuffix(trimmed, "|") {
		return 1
	}
	return 0.8
}

func sizeScore(content string, cfg ChunkConfig) float32 {
	n := len([]rune(content))
	target := (cfg.MaxChars + cfg.MinChars) / 2

	switch {
	case n >= cfg.MinChars && n <= cfg.MaxChars:
		distance := float32(n - target)
		if distance < 0 {
			distance = -distance
		}
		maxDistance := float32(cfg.MaxChars-cfg.MinChars) / 2
		if maxDistance <= 0 {
			return 1
		}
		ratio := distance / maxDistance
		if ratio > 1 {
			ratio = 1
		}
		return 1 - ratio
	case n > cfg.MaxChars:
		return 0.5 * float32(cfg.MaxChars) / float32(n)
	default:
		return 0.6
	}
}

func contextScore(headingPath []string) float32 {
	if len(headingPath) == 0 {
		// Neutral when the document carries no heading structure.
		return 0.5
	}

	depth := float32(len(headingPath)) * 0.2
	if depth > 1 {
		depth = 1
	}

	clarity := float32(0.5)
	for _, h := range headingPath {
		if h == "" {
			clarity = 0.3
			break
		}
	}

	score := depth + clarity
	if score > 1 {
		score = 1
	}
	return score
}
