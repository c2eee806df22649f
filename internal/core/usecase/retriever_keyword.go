package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

// KeywordRetriever is the lexical fallback used when embeddings are
// unavailable. It scores documents by raw occurrence counts of the query
// tokens, normalized by content length so long documents do not dominate.
type KeywordRetriever struct {
	store         ports.DocumentStore
	pathPrefix    string
	snippetLength int
	log           *slog.Logger
}

func NewKeywordRetriever(store ports.DocumentStore, pathPrefix string, snippetLength int, log *slog.Logger) *KeywordRetriever {
	if snippetLength <= 0 {
		snippetLength = 500
	}
	if log == nil {
		log = slog.Default()
	}
	return &KeywordRetriever{
		store:         store,
		pathPrefix:    pathPrefix,
		snippetLength: snippetLength,
		log:           log,
	}
}

func (r *KeywordRetriever) Name() string { return "keyword" }

func (r *KeywordRetriever) Retrieve(ctx context.Context, query string, limit int) ([]domain.Source, error) {
	if limit <= 0 {
		limit = 5
	}

	tokens := keywordTokens(query)
	if len(tokens) == 0 {
		return []domain.Source{}, nil
	}
	// Documents must match at least half the distinct tokens to count.
	minMatches := (len(tokens) + 1) / 2
	if minMatches < 1 {
		minMatches = 1
	}

	prefix := domain.PathPrefixFrom(ctx)
	if prefix == "" {
		prefix = r.pathPrefix
	}
	refs, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	type scoredDoc struct {
		source domain.Source
		score  float64
	}
	scored := make([]scoredDoc, 0, len(refs))

	for _, ref := range refs {
		content, err := r.store.Read(ctx, ref)
		if err != nil {
			r.log.Debug("skipping document", "document", ref.Path, "error", err)
			continue
		}
		if content == "" {
			continue
		}

		lower := strings.ToLower(content)
		matched := 0
		occurrences := 0
		for _, token := range tokens {
			count := strings.Count(lower, token)
			if count > 0 {
				matched++
				occurrences += count
			}
		}
		if matched < minMatches {
			continue
		}

		scored = append(scored, scoredDoc{
			source: domain.Source{
				Document:   ref,
				Similarity: float64(matched) / float64(len(tokens)),
				Content:    extractSnippet(content, query, r.snippetLength),
			},
			score: float64(occurrences) / float64(len(content)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]domain.Source, len(scored))
	for i, s := range scored {
		out[i] = s.source
	}
	return out, nil
}

// keywordTokens lowercases the query, strips punctuation, and keeps distinct
// words longer than three characters.
func keywordTokens(query string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, token := range splitAlphaNumLower(query) {
		if len(token) <= 3 {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
