package usecase

import (
	"math"
	"testing"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5}
	sim, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("CosineSimilarity() error = %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Fatalf("expected cosine(v, v) = 1, got %v", sim)
	}
}

func TestCosineSimilarityNegation(t *testing.T) {
	v := []float32{1, 2, 3}
	neg := []float32{-1, -2, -3}
	sim, err := CosineSimilarity(v, neg)
	if err != nil {
		t.Fatalf("CosineSimilarity() error = %v", err)
	}
	if math.Abs(sim+1) > 1e-9 {
		t.Fatalf("expected cosine(v, -v) = -1, got %v", sim)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if err == nil {
		t.Fatalf("expected error for mismatched dimensions")
	}
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity() error = %v", err)
	}
	if sim != 0 {
		t.Fatalf("expected 0 for zero-magnitude vector, got %v", sim)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	if sim := jaccardSimilarity("the quick brown fox", "the quick red fox"); math.Abs(sim-0.6) > 1e-9 {
		t.Fatalf("expected 3/5 overlap, got %v", sim)
	}
	if sim := jaccardSimilarity("alpha beta", ""); sim != 0 {
		t.Fatalf("expected 0 for empty side, got %v", sim)
	}
	if sim := jaccardSimilarity("same words here", "same words here"); math.Abs(sim-1) > 1e-9 {
		t.Fatalf("expected 1 for identical texts, got %v", sim)
	}
}
