package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

// RetrieverCascade tries an ordered list of retrieval strategies. A strategy
// error moves on to the next one; a success ends the cascade even when it
// found nothing. Exhausting every strategy yields an empty result, never an
// error, so retrieval failure cannot abort the pipeline.
type RetrieverCascade struct {
	retrievers []ports.Retriever
	log        *slog.Logger
}

func NewRetrieverCascade(log *slog.Logger, retrievers ...ports.Retriever) *RetrieverCascade {
	if log == nil {
		log = slog.Default()
	}
	return &RetrieverCascade{retrievers: retrievers, log: log}
}

func (c *RetrieverCascade) Name() string {
	names := make([]string, len(c.retrievers))
	for i, r := range c.retrievers {
		names[i] = r.Name()
	}
	return "cascade(" + strings.Join(names, ",") + ")"
}

func (c *RetrieverCascade) Retrieve(ctx context.Context, query string, limit int) ([]domain.Source, error) {
	for _, retriever := range c.retrievers {
		sources, err := retriever.Retrieve(ctx, query, limit)
		if err != nil {
			c.log.Warn("retrieval strategy failed, trying next",
				"strategy", retriever.Name(), "error", err)
			continue
		}
		return sources, nil
	}
	return []domain.Source{}, nil
}
