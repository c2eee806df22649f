package ports

import (
	"context"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// DocumentStore enumerates and reads corpus documents. List may be
// restricted to a sub-path prefix; an empty prefix lists everything.
type DocumentStore interface {
	List(ctx context.Context, prefix string) ([]domain.DocumentRef, error)
	Read(ctx context.Context, ref domain.DocumentRef) (string, error)
}

// LLM is the language-model backend. Chat completes a conversation; when
// sink is non-nil partial text is pushed to it as it is produced, in
// addition to being returned concatenated. Embed computes an embedding
// vector for one text.
type LLM interface {
	Chat(ctx context.Context, messages []domain.ChatMessage, sink domain.StreamSink) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever searches the corpus for excerpts relevant to a query, ordered
// by descending confidence. Implementations return an error only for
// failures a later strategy in a cascade could recover from; exhausting all
// strategies yields an empty slice, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]domain.Source, error)
	Name() string
}

// QueryService is the inbound contract for the end-to-end pipeline.
type QueryService interface {
	Run(ctx context.Context, query string, opts domain.RAGOptions) (*domain.RAGResult, error)
}
