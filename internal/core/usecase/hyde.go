package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

// HyDE implements hypothetical document embedding: generate a plausible
// answer first and retrieve with *its* text as the query, since a
// hypothetical answer's embedding tends to sit closer to real answer
// passages than the question's embedding does. The hypothetical document is
// never shown to the user.
type HyDE struct {
	llm          ports.LLM
	retriever    ports.Retriever
	minDocLength int
	resultLimit  int
	log          *slog.Logger
}

// HyDEResult carries the generated document and the sources retrieved with
// it. Both are empty when generation was unavailable or too short.
type HyDEResult struct {
	HypotheticalDoc string
	Results         []domain.Source
}

func NewHyDE(llm ports.LLM, retriever ports.Retriever, minDocLength, resultLimit int, log *slog.Logger) *HyDE {
	if minDocLength <= 0 {
		minDocLength = 50
	}
	if resultLimit <= 0 {
		resultLimit = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &HyDE{
		llm:          llm,
		retriever:    retriever,
		minDocLength: minDocLength,
		resultLimit:  resultLimit,
		log:          log,
	}
}

func (h *HyDE) GenerateAndSearch(ctx context.Context, query string) HyDEResult {
	if h.llm == nil || h.retriever == nil {
		return HyDEResult{Results: []domain.Source{}}
	}

	doc := h.generate(ctx, query)
	if doc == "" {
		h.log.Debug("no generation tier produced a usable document, skipping hyde")
		return HyDEResult{Results: []domain.Source{}}
	}

	results, err := h.retriever.Retrieve(ctx, doc, h.resultLimit)
	if err != nil {
		h.log.Warn("hyde retrieval failed", "error", err)
		return HyDEResult{HypotheticalDoc: doc, Results: []domain.Source{}}
	}
	return HyDEResult{HypotheticalDoc: doc, Results: results}
}

// generate walks an ordered list of generation tiers: a detailed expert
// passage, then a minimal "answer briefly" retry, then a trivial placeholder
// referencing the query verbatim so this stage can never stall the pipeline.
// A completion below the minimum length counts as a tier failure and falls
// through to the next tier.
func (h *HyDE) generate(ctx context.Context, query string) string {
	tiers := []struct {
		name    string
		attempt func(context.Context) (string, error)
	}{
		{"expert", func(ctx context.Context) (string, error) {
			return h.llm.Chat(ctx, buildHydePrimaryMessages(query), nil)
		}},
		{"brief", func(ctx context.Context) (string, error) {
			return h.llm.Chat(ctx, buildHydeFallbackMessages(query), nil)
		}},
		{"placeholder", func(context.Context) (string, error) {
			return fmt.Sprintf("This reference passage answers the question %q with relevant facts and background.", query), nil
		}},
	}

	for _, tier := range tiers {
		doc, err := tier.attempt(ctx)
		if err == nil {
			doc = strings.TrimSpace(doc)
			if len(doc) >= h.minDocLength {
				return doc
			}
			err = fmt.Errorf("completion too short: %d chars", len(doc))
		}
		h.log.Debug("hyde generation tier failed", "tier", tier.name, "error", err)
	}
	return ""
}
