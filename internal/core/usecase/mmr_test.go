package usecase

import (
	"testing"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

func TestRerankMMRPassthroughWhenFewCandidates(t *testing.T) {
	candidates := []domain.Candidate{
		{Score: 0.2, Content: "low"},
		{Score: 0.9, Content: "high"},
		{Score: 0.5, Content: "mid"},
	}

	out := RerankMMR(candidates, 0.7, 5)
	if len(out) != 3 {
		t.Fatalf("expected all candidates, got %d", len(out))
	}
	for i := range candidates {
		if out[i].Content != candidates[i].Content {
			t.Fatalf("order changed at %d: got %q", i, out[i].Content)
		}
	}
}

func TestRerankMMRLambdaOneIsPureRelevance(t *testing.T) {
	candidates := []domain.Candidate{
		{Score: 0.4, Content: "c"},
		{Score: 0.9, Content: "a"},
		{Score: 0.7, Content: "b"},
		{Score: 0.1, Content: "d"},
	}

	out := RerankMMR(candidates, 1.0, 3)
	want := []string{"a", "b", "c"}
	if len(out) != 3 {
		t.Fatalf("expected 3 selected, got %d", len(out))
	}
	for i, w := range want {
		if out[i].Content != w {
			t.Fatalf("expected pure relevance order %v, got %q at %d", want, out[i].Content, i)
		}
	}
}

func TestRerankMMRLambdaZeroPenalizesDuplicates(t *testing.T) {
	candidates := []domain.Candidate{
		{Score: 0.95, Content: "dup", Embedding: []float32{1, 0}},
		{Score: 0.90, Content: "dup twin", Embedding: []float32{1, 0}},
		{Score: 0.50, Content: "other", Embedding: []float32{0, 1}},
	}

	out := RerankMMR(candidates, 0.0, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(out))
	}
	if out[0].Content != "dup" {
		t.Fatalf("seed should be top relevance, got %q", out[0].Content)
	}
	if out[1].Content != "other" {
		t.Fatalf("dissimilar document must outrank the duplicate, got %q", out[1].Content)
	}
}

func TestRerankMMRFallsBackToTokenOverlap(t *testing.T) {
	candidates := []domain.Candidate{
		{Score: 0.9, Content: "paris is the capital of france"},
		{Score: 0.8, Content: "paris is the capital of france"},
		{Score: 0.3, Content: "penguins live in antarctica"},
	}

	out := RerankMMR(candidates, 0.2, 2)
	if out[1].Content != "penguins live in antarctica" {
		t.Fatalf("expected text-overlap penalty to promote dissimilar doc, got %q", out[1].Content)
	}
}

func TestRerankMMRLengthIsMinOfKAndDocs(t *testing.T) {
	candidates := []domain.Candidate{
		{Score: 0.9, Content: "a"},
		{Score: 0.8, Content: "b"},
		{Score: 0.7, Content: "c"},
		{Score: 0.6, Content: "d"},
	}
	if got := len(RerankMMR(candidates, 0.7, 2)); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
