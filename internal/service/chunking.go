package service

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/zerolatency/doc-indexer/internal/domain"
)

// ChunkMode selects the chunking strategy.
type ChunkMode string

const (
	// ChunkModeFixed splits text into windows of the target size with
	// overlap, cutting at whitespace boundaries.
	ChunkModeFixed ChunkMode = "fixed"
	// ChunkModeStructure partitions text at heading boundaries first and
	// size-splits only oversized sections.
	ChunkModeStructure ChunkMode = "structure"
)

// ChunkConfig controls document chunking.
type ChunkConfig struct {
	Mode            ChunkMode
	MaxChars        int
	MinChars        int
	Overlap         int
	MaxHeadingDepth int
	MaxChunks       int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Mode:            ChunkModeStructure,
		MaxChars:        1200,
		MinChars:        200,
		Overlap:         150,
		MaxHeadingDepth: 4,
		MaxChunks:       120,
	}
}

// Validate checks the configuration for internal consistency.
func (c ChunkConfig) Validate() error {
	if c.Mode != ChunkModeFixed && c.Mode != ChunkModeStructure {
		return domain.ErrInvalidChunkConfig
	}
	if c.MaxChars <= 0 || c.MinChars < 0 || c.MaxChars <= c.MinChars {
		return domain.ErrInvalidChunkConfig
	}
	// Overlap must not exceed MinChars so consecutive windows always advance.
	if c.Overlap < 0 || c.Overlap > c.MinChars {
		return domain.ErrInvalidChunkConfig
	}
	if c.Mode == ChunkModeStructure && (c.MaxHeadingDepth < 1 || c.MaxHeadingDepth > 6) {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// span is a half-open rune range into the document content, plus the
// heading context it was produced under.
type span struct {
	start   int
	end     int
	heading string
	path    []string
}

// ChunkDocument converts a document's text into an ordered chunk sequence
// under the selected strategy. An empty document yields zero chunks and no
// error; content that is not valid UTF-8 fails with ErrInvalidDocument.
func ChunkDocument(doc *domain.Document, cfg ChunkConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !utf8.ValidString(doc.Content) {
		return nil, domain.ErrInvalidDocument
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)

	var spans []span
	switch cfg.Mode {
	case ChunkModeStructure:
		spans = structureSpans(runes, cfg)
	default:
		spans = fixedSpans(runes, 0, len(runes), cfg)
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, sp := range spans {
		content := string(runes[sp.start:sp.end])
		chunks = append(chunks, domain.Chunk{
			DocumentID:  doc.ID,
			Index:       i,
			Content:     content,
			StartOffset: sp.start,
			EndOffset:   sp.end,
			Heading:     sp.heading,
			HeadingPath: sp.path,
			Type:        classifyChunk(content),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return chunks, nil
}

// fixedSpans splits runes[lo:hi] into windows of at most MaxChars runes,
// cutting at the whitespace boundary nearest the target offset and starting
// each subsequent window Overlap runes before the previous cut. Spans cover
// [lo,hi) exactly: the first span starts at lo, the last ends at hi, and
// every span starts at or before its predecessor's end.
func fixedSpans(runes []rune, lo, hi int, cfg ChunkConfig) []span {
	n := hi - lo
	if n <= 0 {
		return nil
	}
	if n <= cfg.MaxChars {
		return []span{{start: lo, end: hi}}
	}

	spans := make([]span, 0, n/cfg.MaxChars+1)
	start := lo
	for start < hi {
		end := start + cfg.MaxChars
		if end > hi {
			end = hi
		}

		if end < hi {
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		// Force the final window to close out the range.
		if cfg.MaxChunks > 0 && len(spans) == cfg.MaxChunks-1 {
			end = hi
		}

		spans = append(spans, span{start: start, end: end})
		if end >= hi {
			break
		}

		next := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			next = end - cfg.Overlap
		}
		if next <= start {
			next = end
		}
		start = next
	}

	return spans
}

// section is a heading-delimited region of the document.
type section struct {
	start   int
	end     int
	heading string
	path    []string
}

// structureSpans partitions the text at heading boundaries up to
// MaxHeadingDepth, emits each section within budget as one span, and
// size-splits oversized sections. Every span carries the heading context of
// its section, so no span crosses two distinct headings at or above the
// configured depth.
func structureSpans(runes []rune, cfg ChunkConfig) []span {
	sections := splitSections(runes, cfg)

	var spans []span
	for _, sec := range sections {
		if strings.TrimSpace(string(runes[sec.start:sec.end])) == "" {
			continue
		}
		if sec.end-sec.start <= cfg.MaxChars {
			spans = append(spans, span{start: sec.start, end: sec.end, heading: sec.heading, path: sec.path})
			continue
		}
		for _, sp := range fixedSpans(runes, sec.start, sec.end, cfg) {
			sp.heading = sec.heading
			sp.path = sec.path
			spans = append(spans, sp)
		}
	}

	if cfg.MaxChunks > 0 && len(spans) > cfg.MaxChunks {
		spans = spans[:cfg.MaxChunks]
	}
	return spans
}

// splitSections scans the text line by line, opening a new section at every
// heading of level <= MaxHeadingDepth. Headings inside fenced code blocks
// are ignored. The heading line itself belongs to the section it opens.
func splitSections(runes []rune, cfg ChunkConfig) []section {
	var (
		sections   []section
		stack      []string
		curHeading string
		curPath    []string
		secStart   int
		lineStart  int
		inFence    bool
	)

	flush := func(end int) {
		if end > secStart {
			sections = append(sections, section{start: secStart, end: end, heading: curHeading, path: curPath})
		}
	}

	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && runes[i] != '\n' {
			continue
		}

		line := string(runes[lineStart:i])
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		} else if !inFence {
			if level := headingLevel(trimmed); level > 0 && level <= cfg.MaxHeadingDepth {
				flush(lineStart)
				secStart = lineStart

				text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
				if level-1 < len(stack) {
					stack = stack[:level-1]
				}
				stack = append(stack, text)

				curHeading = text
				curPath = append([]string(nil), stack...)
			}
		}

		lineStart = i + 1
	}
	flush(len(runes))

	return sections
}

// headingLevel returns the markdown heading level of a trimmed line, or 0
// when the line is not a heading.
func headingLevel(trimmed string) int {
	level := 0
	for _, r := range trimmed {
		if r == '#' {
			level++
			continue
		}
		if r == ' ' && level >= 1 && level <= 6 {
			return level
		}
		return 0
	}
	return 0
}

// classifyChunk determines the dominant structural element of a chunk.
func classifyChunk(content string) domain.ChunkType {
	trimmed := strings.TrimSpace(content)
	if strings.Contains(trimmed, "```") {
		return domain.ChunkTypeCodeBlock
	}

	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.Contains(t, "|") && len(t) > 2 {
			return domain.ChunkTypeTable
		}
	}
	for _, line := range lines {
		if isListLine(strings.TrimSpace(line)) {
			return domain.ChunkTypeList
		}
	}
	if headingLevel(strings.TrimSpace(lines[0])) > 0 {
		return domain.ChunkTypeHeading
	}
	return domain.ChunkTypeParagraph
}

func isListLine(t string) bool {
	if strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") || strings.HasPrefix(t, "+ ") {
		return true
	}
	if len(t) > 2 && t[0] >= '0' && t[0] <= '9' && t[1] == '.' {
		return true
	}
	return false
}
