package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/n0rvyn/vault-rag/internal/config"
	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/core/ports"
	"github.com/n0rvyn/vault-rag/internal/core/usecase"
	"github.com/n0rvyn/vault-rag/internal/infrastructure/llm/ollama"
	natsnotify "github.com/n0rvyn/vault-rag/internal/infrastructure/notify/nats"
	"github.com/n0rvyn/vault-rag/internal/infrastructure/resilience"
	"github.com/n0rvyn/vault-rag/internal/infrastructure/store/localfs"
	"github.com/n0rvyn/vault-rag/internal/infrastructure/store/postgres"
	"github.com/n0rvyn/vault-rag/internal/observability/logging"
	"github.com/n0rvyn/vault-rag/internal/observability/metrics"
)

const serviceName = "vault-rag"

// App wires configuration, infrastructure, and the pipeline into one
// ready-to-use query service.
type App struct {
	Config  config.Config
	Log     *slog.Logger
	Query   ports.QueryService
	Metrics *metrics.PipelineMetrics

	progress func() domain.ProgressSink
	closeFn  func()
}

// ProgressSink returns a fresh per-invocation progress sink, or nil when no
// progress transport is configured.
func (a *App) ProgressSink() domain.ProgressSink {
	if a.progress == nil {
		return nil
	}
	return a.progress()
}

func New(cfg config.Config) (*App, error) {
	log := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	llm := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Executor: executor,
	})

	vector := usecase.NewVectorRetriever(store, llm, usecase.VectorRetrieverConfig{
		Threshold:       cfg.SimilarityThreshold,
		BatchSize:       cfg.EmbedBatchSize,
		SnippetLength:   cfg.SnippetLength,
		EmbedsPerSecond: cfg.EmbedsPerSecond,
	}, log)
	keyword := usecase.NewKeywordRetriever(store, "", cfg.SnippetLength, log)
	retriever := usecase.NewRetrieverCascade(log, vector, keyword)

	chunker := usecase.NewSemanticChunker(cfg.MaxChunkSize, log)
	rewriter := usecase.NewQueryRewriter(llm, log)
	hyde := usecase.NewHyDE(llm, retriever, cfg.HyDEMinDocLength, cfg.ResultLimit, log)
	reflector := usecase.NewReflector(llm, retriever, usecase.ReflectorConfig{
		MaxRounds: cfg.ReflectionMaxRounds,
	}, log)

	rag, err := usecase.NewRAGService(llm, rewriter, hyde, retriever, chunker, reflector, log)
	if err != nil {
		if closeStore != nil {
			closeStore()
		}
		return nil, err
	}

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)
	query := metrics.Instrument(rag, pipelineMetrics, serviceName)

	app := &App{
		Config:  cfg,
		Log:     log,
		Query:   query,
		Metrics: pipelineMetrics,
		closeFn: closeStore,
	}

	if cfg.NATSEnabled {
		publisher, err := natsnotify.New(cfg.NATSURL, cfg.NATSSubject, natsnotify.Options{})
		if err != nil {
			log.Warn("nats progress publisher unavailable", "error", err)
		} else {
			app.progress = publisher.Sink
			prevClose := app.closeFn
			app.closeFn = func() {
				publisher.Close()
				if prevClose != nil {
					prevClose()
				}
			}
		}
	}

	return app, nil
}

func buildStore(cfg config.Config) (ports.DocumentStore, func(), error) {
	switch cfg.StoreKind {
	case "", "localfs":
		store, err := localfs.New(cfg.VaultPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init vault store: %w", err)
		}
		return store, nil, nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.NewStore(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind: %s", cfg.StoreKind)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
