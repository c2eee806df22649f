package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
)

const localizedTemplateThreshold = 0.15

// RAGService sequences the whole query-time pipeline: rewrite, HyDE plus
// plain retrieval, MMR rerank, grounded generation, reflection. All
// collaborators are taken at construction and the service is immutable
// afterwards; every invocation is self-contained.
type RAGService struct {
	llm       ports.LLM
	rewriter  *QueryRewriter
	hyde      *HyDE
	retriever ports.Retriever
	chunker   *SemanticChunker
	reflector *Reflector
	log       *slog.Logger
}

func NewRAGService(
	llm ports.LLM,
	rewriter *QueryRewriter,
	hyde *HyDE,
	retriever ports.Retriever,
	chunker *SemanticChunker,
	reflector *Reflector,
	log *slog.Logger,
) (*RAGService, error) {
	if llm == nil {
		return nil, domain.WrapError(domain.ErrNoBackend, "build rag service", errors.New("nil llm"))
	}
	if retriever == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build rag service", errors.New("nil retriever"))
	}
	if log == nil {
		log = slog.Default()
	}
	if rewriter == nil {
		rewriter = NewQueryRewriter(llm, log)
	}
	if chunker == nil {
		chunker = NewSemanticChunker(0, log)
	}
	return &RAGService{
		llm:       llm,
		rewriter:  rewriter,
		hyde:      hyde,
		retriever: retriever,
		chunker:   chunker,
		reflector: reflector,
		log:       log,
	}, nil
}

// Run executes one end-to-end pipeline invocation. Progress milestones are
// pure UI feedback; only a failed final generation call can surface an
// error, every other stage degrades per its own contract.
func (s *RAGService) Run(ctx context.Context, query string, opts domain.RAGOptions) (*domain.RAGResult, error) {
	opts = opts.Normalize()
	ctx = domain.WithPathPrefix(ctx, opts.PathPrefix)
	progress := func(percent int, stage string) {
		if opts.OnProgress != nil {
			opts.OnProgress(percent, stage)
		}
	}

	progress(10, "rewriting query")
	rewritten := s.rewriter.Rewrite(ctx, query)

	progress(20, "searching corpus")
	hydeRes, plain := s.retrieveParallel(ctx, rewritten, opts.Limit)
	progress(40, "merging candidates")

	merged := make([]domain.Source, 0, len(hydeRes.Results)+len(plain))
	merged = append(merged, hydeRes.Results...)
	merged = append(merged, plain...)

	sources := rerankSources(merged, opts.Lambda, opts.Limit)

	progress(60, "building context")
	contexts := s.chunker.BuildContexts(sources, rewritten)

	contextText := concatContents(contexts)
	localized := cjkFraction(contextText+hydeRes.HypotheticalDoc) > localizedTemplateThreshold

	var sink domain.StreamSink
	if opts.Stream && opts.OnChunk != nil {
		sink = opts.OnChunk
	}

	progress(75, "generating answer")
	answer, err := s.llm.Chat(ctx, buildAnswerMessages(query, contexts, hydeRes.HypotheticalDoc, localized), sink)
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendCall, "generate answer", err)
	}
	answer = strings.TrimSpace(answer)

	progress(90, "refining answer")
	rounds := 0
	if s.reflector != nil {
		answer, rounds = s.reflector.Improve(ctx, query, answer, len(contexts), sink)
	}

	progress(100, "done")
	return &domain.RAGResult{
		Answer:           answer,
		Sources:          contexts,
		ReflectionRounds: rounds,
	}, nil
}

// retrieveParallel runs HyDE generation+search and plain vector retrieval
// concurrently; both degrade to empty results on failure.
func (s *RAGService) retrieveParallel(ctx context.Context, query string, limit int) (HyDEResult, []domain.Source) {
	var (
		wg      sync.WaitGroup
		hydeRes HyDEResult
		plain   []domain.Source
	)

	if s.hyde != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hydeRes = s.hyde.GenerateAndSearch(ctx, query)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results, err := s.retriever.Retrieve(ctx, query, limit)
		if err != nil {
			s.log.Warn("plain retrieval failed", "error", err)
			return
		}
		plain = results
	}()

	wg.Wait()
	return hydeRes, plain
}

func rerankSources(merged []domain.Source, lambda float64, limit int) []domain.Source {
	candidates := make([]domain.Candidate, len(merged))
	for i := range merged {
		candidates[i] = domain.Candidate{
			Score:   merged[i].Similarity,
			Content: merged[i].Content,
			Origin:  &merged[i],
		}
	}

	reranked := RerankMMR(candidates, lambda, limit)
	out := make([]domain.Source, 0, len(reranked))
	for _, candidate := range reranked {
		if candidate.Origin != nil {
			out = append(out, *candidate.Origin)
		}
	}
	return out
}

func concatContents(sources []domain.Source) string {
	var b strings.Builder
	for _, source := range sources {
		b.WriteString(source.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
