package domain

import "testing"

func TestNormalizeAppliesDefaults(t *testing.T) {
	opts := RAGOptions{}.Normalize()
	if opts.Limit != 10 {
		t.Fatalf("Limit = %d, want 10", opts.Limit)
	}
	if opts.Lambda != 0.6 {
		t.Fatalf("Lambda = %v, want 0.6", opts.Lambda)
	}
}

func TestNormalizeClampsLambda(t *testing.T) {
	for _, bad := range []float64{-0.5, 0, 1.5} {
		opts := RAGOptions{Lambda: bad}.Normalize()
		if opts.Lambda != 0.6 {
			t.Fatalf("Lambda %v normalized to %v, want 0.6", bad, opts.Lambda)
		}
	}
	if opts := (RAGOptions{Lambda: 0.3}).Normalize(); opts.Lambda != 0.3 {
		t.Fatalf("in-range Lambda changed to %v", opts.Lambda)
	}
}

func TestNormalizeClearsChunkSinkWithoutStream(t *testing.T) {
	opts := RAGOptions{OnChunk: func(string) {}}.Normalize()
	if opts.OnChunk != nil {
		t.Fatalf("OnChunk must be cleared when Stream is off")
	}
}
