package usecase

import (
	"sort"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// RerankMMR applies Maximal Marginal Relevance: it balances base relevance
// against redundancy with already-selected candidates, so a near-duplicate
// of a chosen document is penalized proportionally to (1 - lambda).
//
// When len(candidates) <= k the input is returned unchanged in original
// order. Ties in mmr score resolve to the first-encountered candidate.
func RerankMMR(candidates []domain.Candidate, lambda float64, k int) []domain.Candidate {
	if k <= 0 {
		return nil
	}
	if len(candidates) <= k {
		return candidates
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	remaining := make([]domain.Candidate, len(candidates))
	copy(remaining, candidates)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Score > remaining[j].Score
	})

	selected := make([]domain.Candidate, 0, k)
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			score := mmrScore(remaining[i], selected, lambda)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func mmrScore(candidate domain.Candidate, selected []domain.Candidate, lambda float64) float64 {
	maxSim := 0.0
	for _, chosen := range selected {
		sim := pairwiseSimilarity(candidate, chosen)
		if sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*candidate.Score - (1-lambda)*maxSim
}

// pairwiseSimilarity prefers embedding cosine when both candidates carry
// vectors, falls back to token overlap of their text, and reports zero when
// neither is available.
func pairwiseSimilarity(a, b domain.Candidate) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		sim, err := CosineSimilarity(a.Embedding, b.Embedding)
		if err == nil {
			return sim
		}
	}
	if a.Content != "" && b.Content != "" {
		return jaccardSimilarity(a.Content, b.Content)
	}
	return 0
}
