package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

const (
	rewriteMinQueryChars  = 10
	rewriteMinQueryTokens = 3
	rewriteMinResultChars = 3
	rewriteMaxResultChars = 200
)

// QueryRewriter asks the backend for a retrieval-optimized version of the
// query. It never fails: any backend error, missing backend, or degenerate
// completion falls back to the original query unchanged.
type QueryRewriter struct {
	llm ports.LLM
	log *slog.Logger
}

func NewQueryRewriter(llm ports.LLM, log *slog.Logger) *QueryRewriter {
	if log == nil {
		log = slog.Default()
	}
	return &QueryRewriter{llm: llm, log: log}
}

func (r *QueryRewriter) Rewrite(ctx context.Context, query string) string {
	// Low-information queries are left alone; rewriting them risks losing
	// the user's intent entirely.
	if r.llm == nil || len(query) < rewriteMinQueryChars || len(strings.Fields(query)) < rewriteMinQueryTokens {
		return query
	}

	response, err := r.llm.Chat(ctx, buildRewriteMessages(query), nil)
	if err != nil {
		r.log.Warn("query rewrite failed, using original", "error", err)
		return query
	}

	cleaned := cleanRewrittenQuery(response)
	if cleaned == "" || len(cleaned) < rewriteMinResultChars || len(cleaned) > rewriteMaxResultChars {
		r.log.Debug("rejected rewritten query", "length", len(cleaned))
		return query
	}
	return cleaned
}

// cleanRewrittenQuery strips the decoration models wrap around an otherwise
// usable rewrite: surrounding quotes, a "Rewritten query:" style prefix, a
// trailing period.
func cleanRewrittenQuery(response string) string {
	s := strings.TrimSpace(response)
	s = strings.Trim(s, `"'`)

	lower := strings.ToLower(s)
	for _, prefix := range []string{"rewritten query:", "rewritten:", "query:"} {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
