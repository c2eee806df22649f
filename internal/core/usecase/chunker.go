package usecase

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

var (
	headingLineRe = regexp.MustCompile(`^#{1,6}\s+\S`)
	ruleLineRe    = regexp.MustCompile(`^(-{3,}|\*{3,}|={3,})\s*$`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+\s*`)
	blankLineRe   = regexp.MustCompile(`\n\s*\n`)
)

// SemanticChunker splits a document into scored sub-passages, ranked most
// relevant to the query first. It degrades to the whole text on internal
// failure, so non-empty input never produces zero chunks.
type SemanticChunker struct {
	maxChunkSize int
	topPerSource int
	log          *slog.Logger
}

func NewSemanticChunker(maxChunkSize int, log *slog.Logger) *SemanticChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if log == nil {
		log = slog.Default()
	}
	return &SemanticChunker{
		maxChunkSize: maxChunkSize,
		topPerSource: 2,
		log:          log,
	}
}

type scoredChunk struct {
	text  string
	score int
}

// CreateChunks splits text on structural boundaries, packs oversized
// segments down to the size limit, and returns the chunks sorted by
// descending query relevance. Ties keep encounter order.
func (c *SemanticChunker) CreateChunks(text, query string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	segments := splitStructural(trimmed)

	chunks := make([]string, 0, len(segments))
	for _, segment := range segments {
		if len(segment) <= c.maxChunkSize {
			chunks = append(chunks, segment)
			continue
		}
		chunks = append(chunks, c.splitParagraphs(segment)...)
	}
	if len(chunks) == 0 {
		return []string{trimmed}
	}

	scored := make([]scoredChunk, len(chunks))
	for i, chunk := range chunks {
		scored[i] = scoredChunk{text: chunk, score: scoreChunk(chunk, query)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.text
	}
	return out
}

// BuildContexts re-chunks every retrieved source against the query and keeps
// only the top chunks per source. A source whose content cannot be chunked
// is re-emitted unmodified rather than dropped.
func (c *SemanticChunker) BuildContexts(sources []domain.Source, query string) []domain.Source {
	out := make([]domain.Source, 0, len(sources))
	for _, source := range sources {
		chunks := c.CreateChunks(source.Content, query)
		if len(chunks) == 0 {
			c.log.Debug("chunking yielded nothing, keeping raw source", "document", source.Document.Path)
			out = append(out, source)
			continue
		}
		if len(chunks) > c.topPerSource {
			chunks = chunks[:c.topPerSource]
		}
		out = append(out, domain.Source{
			Document:   source.Document,
			Similarity: source.Similarity,
			Content:    strings.Join(chunks, "\n\n"),
		})
	}
	return out
}

// splitStructural cuts on markdown headings and horizontal rules. A heading
// starts its own segment so heading bonuses stay attached to the text below
// it; rule lines are pure separators and are discarded.
func splitStructural(text string) []string {
	lines := strings.Split(text, "\n")

	segments := make([]string, 0, 8)
	var current []string
	flush := func() {
		segment := strings.TrimSpace(strings.Join(current, "\n"))
		if segment != "" {
			segments = append(segments, segment)
		}
		current = current[:0]
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if ruleLineRe.MatchString(stripped) {
			flush()
			continue
		}
		if headingLineRe.MatchString(stripped) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return segments
}

// splitParagraphs greedily packs blank-line separated paragraphs into chunks
// up to the size limit; a single paragraph over the limit is split further
// at sentence boundaries.
func (c *SemanticChunker) splitParagraphs(segment string) []string {
	paragraphs := splitBlankLines(segment)

	out := make([]string, 0, len(paragraphs))
	var packed []string
	packedLen := 0
	flush := func() {
		if len(packed) > 0 {
			out = append(out, strings.Join(packed, "\n\n"))
			packed = packed[:0]
			packedLen = 0
		}
	}

	for _, paragraph := range paragraphs {
		if len(paragraph) > c.maxChunkSize {
			flush()
			out = append(out, c.splitSentences(paragraph)...)
			continue
		}
		joined := packedLen + len(paragraph)
		if len(packed) > 0 {
			joined += 2
		}
		if joined > c.maxChunkSize {
			flush()
		}
		packed = append(packed, paragraph)
		packedLen += len(paragraph)
		if len(packed) > 1 {
			packedLen += 2
		}
	}
	flush()
	return out
}

// splitSentences greedily packs sentences up to the size limit. A single
// sentence longer than the limit is emitted as-is; that is the only case a
// chunk may exceed the configured size.
func (c *SemanticChunker) splitSentences(paragraph string) []string {
	sentences := splitAfterTerminators(paragraph)

	out := make([]string, 0, len(sentences))
	var b strings.Builder
	for _, sentence := range sentences {
		if b.Len() > 0 && b.Len()+1+len(sentence) > c.maxChunkSize {
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	if b.Len() > 0 {
		out = append(out, strings.TrimSpace(b.String()))
	}
	return out
}

func splitBlankLines(text string) []string {
	raw := blankLineRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitAfterTerminators(text string) []string {
	locs := sentenceEndRe.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		sentence := strings.TrimSpace(text[start:loc[1]])
		if sentence != "" {
			out = append(out, sentence)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// scoreChunk rewards the full query as a substring, then each distinct query
// term found anywhere in the chunk, with an extra bonus when the term also
// occurs in a heading line.
func scoreChunk(chunk, query string) int {
	lowerChunk := strings.ToLower(chunk)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	score := 0
	if lowerQuery != "" && strings.Contains(lowerChunk, lowerQuery) {
		score += 100
	}

	var headings []string
	for _, line := range strings.Split(chunk, "\n") {
		if headingLineRe.MatchString(strings.TrimSpace(line)) {
			headings = append(headings, strings.ToLower(line))
		}
	}

	seen := make(map[string]struct{})
	for _, term := range splitAlphaNumLower(lowerQuery) {
		if len(term) <= 2 {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if !strings.Contains(lowerChunk, term) {
			continue
		}
		score += 10
		for _, heading := range headings {
			if strings.Contains(heading, term) {
				score += 5
				break
			}
		}
	}
	return score
}
