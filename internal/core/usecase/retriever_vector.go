package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

// VectorRetrieverConfig tunes embedding-based retrieval. The similarity
// threshold default follows the original pipeline; it is a knob, not a
// validated optimum.
type VectorRetrieverConfig struct {
	Threshold     float64
	BatchSize     int
	SnippetLength int
	PathPrefix    string
	// EmbedsPerSecond caps embedding-backend calls; <= 0 disables the cap.
	EmbedsPerSecond float64
}

// maxSimilarityThreshold caps deliberate extreme settings: a threshold of 1
// would filter out even exact matches, since candidates must score strictly
// above it.
const maxSimilarityThreshold = 0.99

func (c VectorRetrieverConfig) normalize() VectorRetrieverConfig {
	out := c
	if out.Threshold <= 0 {
		out.Threshold = 0.5
	}
	if out.Threshold > maxSimilarityThreshold {
		out.Threshold = maxSimilarityThreshold
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 5
	}
	if out.SnippetLength <= 0 {
		out.SnippetLength = 500
	}
	return out
}

// VectorRetriever searches the corpus by embedding similarity. Documents are
// processed in fixed-size batches; documents inside one batch run
// concurrently while batches themselves are sequential, bounding peak
// backend load to the batch size.
type VectorRetriever struct {
	store   ports.DocumentStore
	llm     ports.LLM
	cfg     VectorRetrieverConfig
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewVectorRetriever(store ports.DocumentStore, llm ports.LLM, cfg VectorRetrieverConfig, log *slog.Logger) *VectorRetriever {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.normalize()

	var limiter *rate.Limiter
	if cfg.EmbedsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedsPerSecond), cfg.BatchSize)
	}
	return &VectorRetriever{
		store:   store,
		llm:     llm,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

func (r *VectorRetriever) Name() string { return "vector" }

// Retrieve returns up to limit sources ordered by descending similarity. A
// failed query embedding is returned as an error so a cascade can fall back
// to keyword search; per-document failures are logged and skipped.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, limit int) ([]domain.Source, error) {
	if limit <= 0 {
		limit = 5
	}

	prefix := domain.PathPrefixFrom(ctx)
	if prefix == "" {
		prefix = r.cfg.PathPrefix
	}
	refs, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(refs) == 0 {
		return []domain.Source{}, nil
	}

	queryVector, err := r.embed(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendCall, "embed query", err)
	}

	candidates := make([]domain.Source, 0, limit)
	for start := 0; start < len(refs); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(refs) {
			end = len(refs)
		}
		candidates = append(candidates, r.scoreBatch(ctx, refs[start:end], query, queryVector)...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (r *VectorRetriever) scoreBatch(ctx context.Context, refs []domain.DocumentRef, query string, queryVector []float32) []domain.Source {
	results := make([]*domain.Source, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref domain.DocumentRef) {
			defer wg.Done()
			source, err := r.scoreDocument(ctx, ref, query, queryVector)
			if err != nil {
				r.log.Debug("skipping document", "document", ref.Path, "error", err)
				return
			}
			results[i] = source
		}(i, ref)
	}
	wg.Wait()

	kept := make([]domain.Source, 0, len(refs))
	for _, source := range results {
		if source != nil {
			kept = append(kept, *source)
		}
	}
	return kept
}

// scoreDocument returns nil, nil when the document scores below the
// similarity threshold.
func (r *VectorRetriever) scoreDocument(ctx context.Context, ref domain.DocumentRef, query string, queryVector []float32) (*domain.Source, error) {
	content, err := r.store.Read(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if content == "" {
		return nil, nil
	}

	docVector, err := r.embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}

	similarity, err := CosineSimilarity(queryVector, docVector)
	if err != nil {
		return nil, err
	}
	if similarity <= r.cfg.Threshold {
		return nil, nil
	}

	return &domain.Source{
		Document:   ref,
		Similarity: similarity,
		Content:    extractSnippet(content, query, r.cfg.SnippetLength),
	}, nil
}

func (r *VectorRetriever) embed(ctx context.Context, text string) ([]float32, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.llm.Embed(ctx, text)
}
