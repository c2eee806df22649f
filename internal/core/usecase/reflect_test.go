package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

const (
	reflectDraft    = "Backups run nightly and are kept for thirty days. [1]"
	reflectCritique = "The answer omits offsite replication and restore testing.\n" +
		"1. offsite backup replication schedule\n" +
		"2. restore testing procedure"
	reflectRevised = "Backups run nightly and are kept for thirty days. [1] " +
		"Offsite replication runs weekly and restores are tested quarterly. [2]"
)

func reflectLLM(t *testing.T, revised string, reviseUser *string) *fakeLLM {
	t.Helper()
	return &fakeLLM{chatFn: func(messages []domain.ChatMessage, sink domain.StreamSink) (string, error) {
		switch {
		case strings.Contains(messages[0].Content, "review draft answers"):
			return reflectCritique, nil
		case strings.Contains(messages[0].Content, "Improve the draft answer"):
			if reviseUser != nil {
				*reviseUser = messages[1].Content
			}
			if sink != nil {
				sink(revised)
			}
			return revised, nil
		default:
			t.Fatalf("unexpected chat call: %q", messages[0].Content)
			return "", nil
		}
	}}
}

func TestImproveRunsFullRound(t *testing.T) {
	var reviseUser string
	llm := reflectLLM(t, reflectRevised, &reviseUser)
	retriever := &fakeRetriever{sources: []domain.Source{{
		Document:   domain.DocumentRef{Path: "ops/dr.md", Name: "dr.md"},
		Similarity: 0.7,
		Content:    "offsite replication runs weekly",
	}}}

	var notices []string
	reflector := NewReflector(llm, retriever, ReflectorConfig{MaxRounds: 1}, nil)
	answer, rounds := reflector.Improve(context.Background(), "how do backups work", reflectDraft, 1, func(s string) {
		notices = append(notices, s)
	})

	if answer != reflectRevised {
		t.Fatalf("answer = %q", answer)
	}
	if rounds != 1 {
		t.Fatalf("rounds = %d, want 1", rounds)
	}
	if len(retriever.queries) != 2 {
		t.Fatalf("expected one retrieval per extracted query, got %v", retriever.queries)
	}
	// One source was already shown, so gap context numbering starts at [2].
	if !strings.Contains(reviseUser, "[2] dr.md") {
		t.Fatalf("citation offset not applied:\n%s", reviseUser)
	}
	if len(notices) == 0 || !strings.Contains(notices[0], "enhancing the answer") {
		t.Fatalf("expected enhancement notice, got %v", notices)
	}
}

func TestImproveStopsAtMaxRounds(t *testing.T) {
	llm := reflectLLM(t, reflectRevised+" More detail each pass.", nil)
	retriever := &fakeRetriever{sources: []domain.Source{{
		Document: domain.DocumentRef{Path: "ops/dr.md", Name: "dr.md"}, Similarity: 0.7, Content: "detail",
	}}}

	reflector := NewReflector(llm, retriever, ReflectorConfig{}, nil)
	_, rounds := reflector.Improve(context.Background(), "how do backups work", reflectDraft, 0, nil)

	if rounds != 2 {
		t.Fatalf("rounds = %d, want 2", rounds)
	}
	// Each round is one critique call plus one revise call; the numbered
	// list in the critique keeps the extraction call off the backend.
	if llm.chats != 4 {
		t.Fatalf("chats = %d, want 4", llm.chats)
	}
}

func TestImproveKeepsAnswerOnShortCritique(t *testing.T) {
	llm := &fakeLLM{chatFn: func([]domain.ChatMessage, domain.StreamSink) (string, error) {
		return "Looks complete.", nil
	}}
	retriever := &fakeRetriever{}

	reflector := NewReflector(llm, retriever, ReflectorConfig{}, nil)
	answer, rounds := reflector.Improve(context.Background(), "q", reflectDraft, 0, nil)

	if answer != reflectDraft || rounds != 0 {
		t.Fatalf("short critique must keep answer, got %q rounds %d", answer, rounds)
	}
	if len(retriever.queries) != 0 {
		t.Fatalf("no retrieval expected, got %v", retriever.queries)
	}
}

func TestImproveKeepsAnswerWhenNothingRetrieved(t *testing.T) {
	llm := reflectLLM(t, reflectRevised, nil)
	retriever := &fakeRetriever{} // empty results for every query

	reflector := NewReflector(llm, retriever, ReflectorConfig{}, nil)
	answer, rounds := reflector.Improve(context.Background(), "q", reflectDraft, 0, nil)

	if answer != reflectDraft || rounds != 0 {
		t.Fatalf("empty retrieval must keep answer, got %q rounds %d", answer, rounds)
	}
}

func TestImproveDiscardsDegenerateRevision(t *testing.T) {
	llm := reflectLLM(t, "Shorter.", nil)
	retriever := &fakeRetriever{sources: []domain.Source{{
		Document: domain.DocumentRef{Path: "a.md", Name: "a.md"}, Similarity: 0.6, Content: "x",
	}}}

	reflector := NewReflector(llm, retriever, ReflectorConfig{}, nil)
	answer, rounds := reflector.Improve(context.Background(), "q", reflectDraft, 0, nil)

	if answer != reflectDraft || rounds != 0 {
		t.Fatalf("truncated revision must be discarded, got %q rounds %d", answer, rounds)
	}
}

func TestImproveWithoutBackend(t *testing.T) {
	reflector := NewReflector(nil, &fakeRetriever{}, ReflectorConfig{}, nil)
	answer, rounds := reflector.Improve(context.Background(), "q", reflectDraft, 0, nil)
	if answer != reflectDraft || rounds != 0 {
		t.Fatalf("nil backend must keep answer, got %q rounds %d", answer, rounds)
	}
}
