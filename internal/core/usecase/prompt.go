package usecase

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

const rewriteSystemPrompt = `You optimize search queries for document retrieval.
Rewrite the user's query to maximize recall of relevant passages: expand
abbreviations, add likely synonyms, keep the original intent.
Return only the rewritten query, nothing else.`

func buildRewriteMessages(query string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: rewriteSystemPrompt},
		{Role: domain.RoleUser, Content: query},
	}
}

func buildHydePrimaryMessages(query string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: `You are a subject-matter expert. Write a detailed, factual passage that
directly answers the question, in first person, as it would appear in a
reference document. Do not use meta-commentary such as "as an AI".`},
		{Role: domain.RoleUser, Content: query},
	}
}

func buildHydeFallbackMessages(query string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Answer briefly: " + query},
	}
}

// formatSources renders numbered citations. startIndex offsets the numbers
// so context appended in later reflection rounds keeps a consistent
// citation numbering with what the user has already seen.
func formatSources(sources []domain.Source, startIndex int) string {
	var b strings.Builder
	for i, source := range sources {
		fmt.Fprintf(&b, "[%d] %s (similarity %.2f)\n%s\n\n",
			startIndex+i+1, source.Document.Name, source.Similarity, source.Content)
	}
	return b.String()
}

func buildAnswerMessages(question string, contexts []domain.Source, hypotheticalDoc string, localized bool) []domain.ChatMessage {
	var context strings.Builder
	context.WriteString(formatSources(contexts, 0))
	if hypotheticalDoc != "" {
		context.WriteString(hypotheticalDoc)
		context.WriteString("\n")
	}

	system := `Answer the question using only the numbered context below.
Cite sources inline as [n]. If the context is insufficient, say so directly.`
	if localized {
		system = "请仅依据下面带编号的上下文回答问题，引用来源时使用 [n] 标注。如果上下文不足以回答，请直接说明。"
	}

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: fmt.Sprintf("Question:\n%s\n\nContext:\n%s", question, context.String())},
	}
}

func buildCritiqueMessages(question, answer string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: `You review draft answers for completeness. Compare the answer to the
question and list 3-5 specific information gaps. For each gap propose a
short search query, formatted as a numbered list: "1. <query>".`},
		{Role: domain.RoleUser, Content: fmt.Sprintf("Question:\n%s\n\nDraft answer:\n%s", question, answer)},
	}
}

const extractQueriesHeader = "Search queries:"

func buildExtractQueriesMessages(critique string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: `Extract 3-5 short search queries from the critique below.
Output one query per line, no numbering, no commentary, after the line "` + extractQueriesHeader + `"`},
		{Role: domain.RoleUser, Content: critique},
	}
}

func buildReviseMessages(question, answer, critique, newContext string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: `Improve the draft answer using the critique and the additional context.
Preserve the existing strengths of the draft, keep all [n] citations valid,
and do not add any preamble; output only the improved answer.`},
		{Role: domain.RoleUser, Content: fmt.Sprintf(
			"Question:\n%s\n\nCurrent answer:\n%s\n\nCritique:\n%s\n\nAdditional context:\n%s",
			question, answer, critique, newContext)},
	}
}

// cjkFraction reports the share of CJK ideographs among non-space runes.
// The orchestrator switches to the localized answer template above 15%.
func cjkFraction(text string) float64 {
	total := 0
	cjk := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cjk) / float64(total)
}
