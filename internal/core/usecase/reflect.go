package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

var numberedItemRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+)$`)

// ReflectorConfig tunes the critique loop. The length guards mirror the
// original pipeline's defaults; they are deliberately configurable since
// none of the values is a validated optimum.
type ReflectorConfig struct {
	MaxRounds        int
	MinCritiqueChars int
	MinQueryChars    int
	ResultsPerQuery  int
}

func (c ReflectorConfig) normalize() ReflectorConfig {
	out := c
	if out.MaxRounds <= 0 {
		out.MaxRounds = 2
	}
	if out.MinCritiqueChars <= 0 {
		out.MinCritiqueChars = 50
	}
	if out.MinQueryChars <= 0 {
		out.MinQueryChars = 5
	}
	if out.ResultsPerQuery <= 0 {
		out.ResultsPerQuery = 3
	}
	return out
}

// Reflector iteratively critiques a draft answer, re-queries the corpus to
// fill the gaps the critique names, and revises. Every stopping condition
// returns the best answer seen so far; reflection failure never discards a
// previously valid answer. The round counter lives on the stack of one
// Improve call, so concurrent invocations stay independent.
type Reflector struct {
	llm       ports.LLM
	retriever ports.Retriever
	cfg       ReflectorConfig
	log       *slog.Logger
}

func NewReflector(llm ports.LLM, retriever ports.Retriever, cfg ReflectorConfig, log *slog.Logger) *Reflector {
	if log == nil {
		log = slog.Default()
	}
	return &Reflector{
		llm:       llm,
		retriever: retriever,
		cfg:       cfg.normalize(),
		log:       log,
	}
}

// Improve runs up to MaxRounds critique/retrieve/revise iterations.
// shownSources is the count of citations the caller already displayed;
// newly retrieved context is numbered after it so citation numbers stay
// consistent across rounds. When sink is non-nil, status notices and the
// revision's incremental output are pushed through it.
func (r *Reflector) Improve(ctx context.Context, question, answer string, shownSources int, sink func(string)) (string, int) {
	if r.llm == nil || r.retriever == nil {
		return answer, 0
	}

	rounds := 0
	current := answer
	contextOffset := shownSources

	for rounds < r.cfg.MaxRounds {
		critique, err := r.llm.Chat(ctx, buildCritiqueMessages(question, current), nil)
		if err != nil {
			r.log.Warn("critique failed, keeping current answer", "error", err)
			return current, rounds
		}
		critique = strings.TrimSpace(critique)
		if len(critique) < r.cfg.MinCritiqueChars {
			return current, rounds
		}

		queries := r.extractQueries(ctx, critique)
		if len(queries) == 0 {
			return current, rounds
		}

		newContext, added := r.searchGaps(ctx, queries, contextOffset)
		if added == 0 {
			return current, rounds
		}
		contextOffset += added

		if sink != nil {
			sink("\n\n_Found more information, enhancing the answer..._\n\n")
		}
		revised, err := r.llm.Chat(ctx, buildReviseMessages(question, current, critique, newContext), sink)
		if err != nil {
			r.log.Warn("revision failed, keeping current answer", "error", err)
			return current, rounds
		}
		revised = strings.TrimSpace(revised)

		// Guard against truncated or degenerate rewrites: a revision much
		// shorter than the current answer is discarded.
		if len(revised) <= len(current)/2 {
			return current, rounds
		}
		current = revised
		rounds++
	}
	return current, rounds
}

// extractQueries pulls candidate search queries out of a critique. A direct
// numbered-list scan is tried first; only when it yields nothing is the
// backend asked to extract queries one per line.
func (r *Reflector) extractQueries(ctx context.Context, critique string) []string {
	queries := r.filterQueries(numberedListItems(critique))
	if len(queries) > 0 {
		return queries
	}

	response, err := r.llm.Chat(ctx, buildExtractQueriesMessages(critique), nil)
	if err != nil {
		r.log.Debug("query extraction failed", "error", err)
		return nil
	}
	return r.filterQueries(strings.Split(response, "\n"))
}

func (r *Reflector) filterQueries(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		q := strings.TrimSpace(line)
		if len(q) < r.cfg.MinQueryChars {
			continue
		}
		if strings.EqualFold(q, extractQueriesHeader) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// searchGaps retrieves additional context per extracted query, tagging each
// batch with its originating sub-query. It returns the assembled context
// text and the number of sources it contains.
func (r *Reflector) searchGaps(ctx context.Context, queries []string, offset int) (string, int) {
	var b strings.Builder
	added := 0
	for _, query := range queries {
		results, err := r.retriever.Retrieve(ctx, query, r.cfg.ResultsPerQuery)
		if err != nil {
			r.log.Debug("gap retrieval failed", "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Results for sub-query %q:\n%s", query, formatSources(results, offset+added))
		added += len(results)
	}
	return b.String(), added
}

func numberedListItems(text string) []string {
	matches := numberedItemRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
