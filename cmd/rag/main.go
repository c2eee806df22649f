package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/n0rvyn/vault-rag/internal/bootstrap"
	"github.com/n0rvyn/vault-rag/internal/config"
	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

func main() {
	limit := flag.Int("limit", 0, "maximum number of sources (0 = configured default)")
	lambda := flag.Float64("lambda", 0, "MMR relevance/diversity trade-off (0 = configured default)")
	path := flag.String("path", "", "restrict retrieval to a vault sub-path")
	noStream := flag.Bool("no-stream", false, "wait for the full answer instead of streaming")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall pipeline timeout")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: rag [flags] <question>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *limit > 0 {
		cfg.ResultLimit = *limit
	}
	if *lambda > 0 {
		cfg.MMRLambda = *lambda
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	opts := domain.RAGOptions{
		Limit:      cfg.ResultLimit,
		Lambda:     cfg.MMRLambda,
		PathPrefix: *path,
		OnProgress: app.ProgressSink(),
	}
	if !*noStream {
		opts.Stream = true
		opts.OnChunk = func(chunk string) { fmt.Print(chunk) }
	}

	result, err := app.Query.Run(ctx, query, opts)
	if err != nil {
		if domain.IsKind(err, domain.ErrNoBackend) {
			log.Fatalf("no language model backend available: %v", err)
		}
		log.Fatalf("query failed: %v", err)
	}

	if *noStream {
		fmt.Println(result.Answer)
	} else {
		fmt.Println()
	}

	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range result.Sources {
			fmt.Printf("  [%d] %s (%.2f)\n", i+1, source.Document.Name, source.Similarity)
		}
	}
	if result.ReflectionRounds > 0 {
		fmt.Printf("\nRefined over %d reflection round(s).\n", result.ReflectionRounds)
	}
}
