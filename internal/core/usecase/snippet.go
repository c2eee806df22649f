package usecase

import "strings"

const snippetWindowSentences = 3

// extractSnippet returns the most query-relevant passage of a document. It
// slides a three-sentence window over the text and keeps the window covering
// the largest fraction of distinct query words. When no window matches at
// all it falls back to the text around the first verbatim occurrence of the
// query, then to the head of the document.
func extractSnippet(content, query string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return strings.TrimSpace(content)
	}

	sentences := splitAfterTerminators(content)
	queryWords := toTokenSet(query)

	if len(sentences) >= snippetWindowSentences && len(queryWords) > 0 {
		bestScore := 0.0
		bestStart := -1
		for start := 0; start+snippetWindowSentences <= len(sentences); start++ {
			window := strings.Join(sentences[start:start+snippetWindowSentences], " ")
			score := coverageFraction(queryWords, window)
			if score > bestScore {
				bestScore = score
				bestStart = start
			}
		}
		if bestStart >= 0 && bestScore > 0 {
			snippet := strings.Join(sentences[bestStart:bestStart+snippetWindowSentences], " ")
			return clampSnippet(snippet, maxLen)
		}
	}

	if idx := strings.Index(strings.ToLower(content), strings.ToLower(strings.TrimSpace(query))); idx >= 0 && strings.TrimSpace(query) != "" {
		start := idx - maxLen/4
		if start < 0 {
			start = 0
		}
		return clampSnippet(content[start:], maxLen)
	}

	return clampSnippet(content, maxLen)
}

// coverageFraction is the share of distinct query words present in text.
func coverageFraction(queryWords map[string]struct{}, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	textWords := toTokenSet(text)
	hits := 0
	for word := range queryWords {
		if _, ok := textWords[word]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}

// clampSnippet bounds a snippet to maxLen runes; the guard and the cut use
// the same unit so multi-byte text cannot slip past the limit.
func clampSnippet(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
