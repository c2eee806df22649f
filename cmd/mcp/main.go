package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/n0rvyn/vault-rag/internal/bootstrap"
	"github.com/n0rvyn/vault-rag/internal/config"
	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		srv := &http.Server{
			Addr:         ":" + cfg.MetricsPort,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Warn("metrics server stopped", "error", err)
		}
	}()

	s := server.NewMCPServer("vault-rag", "1.0.0", server.WithToolCapabilities(false))

	tool := mcp.NewTool("vault_query",
		mcp.WithDescription("Answer a question from the personal document vault, with cited source excerpts."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The natural-language question.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of source excerpts to use.")),
		mcp.WithString("path", mcp.Description("Restrict retrieval to a vault sub-path.")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := app.Query.Run(ctx, query, domain.RAGOptions{
			Limit:      req.GetInt("limit", cfg.ResultLimit),
			Lambda:     cfg.MMRLambda,
			PathPrefix: req.GetString("path", ""),
			OnProgress: app.ProgressSink(),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		var b strings.Builder
		b.WriteString(result.Answer)
		if len(result.Sources) > 0 {
			b.WriteString("\n\nSources:\n")
			for i, source := range result.Sources {
				fmt.Fprintf(&b, "[%d] %s (%.2f)\n", i+1, source.Document.Name, source.Similarity)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
