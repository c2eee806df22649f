package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreKind != "localfs" {
		t.Fatalf("expected default store kind localfs, got %s", cfg.StoreKind)
	}
	if cfg.ResultLimit != 10 {
		t.Fatalf("expected default result limit 10, got %d", cfg.ResultLimit)
	}
	if cfg.MMRLambda != 0.6 {
		t.Fatalf("expected default lambda 0.6, got %v", cfg.MMRLambda)
	}
	if cfg.ReflectionMaxRounds != 2 {
		t.Fatalf("expected default reflection rounds 2, got %d", cfg.ReflectionMaxRounds)
	}
}

func TestLoadYAMLOverlayThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	overlay := "result_limit: 7\nmmr_lambda: 0.4\nvault_path: /tmp/vault\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv("RAG_CONFIG_FILE", path)
	t.Setenv("RAG_RESULT_LIMIT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ResultLimit != 3 {
		t.Fatalf("env should override overlay, got limit %d", cfg.ResultLimit)
	}
	if cfg.MMRLambda != 0.4 {
		t.Fatalf("overlay should override default, got lambda %v", cfg.MMRLambda)
	}
	if cfg.VaultPath != "/tmp/vault" {
		t.Fatalf("overlay vault path not applied, got %s", cfg.VaultPath)
	}
}

func TestLoadRejectsUnreadableOverlay(t *testing.T) {
	t.Setenv("RAG_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
