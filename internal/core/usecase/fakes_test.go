package usecase

import (
	"context"
	"errors"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// fakeLLM dispatches chat calls through chatFn and embeddings through
// embedFn; nil functions report an unavailable backend.
type fakeLLM struct {
	chatFn  func(messages []domain.ChatMessage, sink domain.StreamSink) (string, error)
	embedFn func(text string) ([]float32, error)
	chats   int
	embeds  int
}

func (f *fakeLLM) Chat(_ context.Context, messages []domain.ChatMessage, sink domain.StreamSink) (string, error) {
	f.chats++
	if f.chatFn == nil {
		return "", errors.New("chat unavailable")
	}
	return f.chatFn(messages, sink)
}

func (f *fakeLLM) Embed(_ context.Context, text string) ([]float32, error) {
	f.embeds++
	if f.embedFn == nil {
		return nil, errors.New("embed unavailable")
	}
	return f.embedFn(text)
}

type fakeStore struct {
	refs    []domain.DocumentRef
	content map[string]string
	readErr map[string]error
	listErr error
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]domain.DocumentRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if prefix == "" {
		return f.refs, nil
	}
	out := make([]domain.DocumentRef, 0, len(f.refs))
	for _, ref := range f.refs {
		if len(ref.Path) >= len(prefix) && ref.Path[:len(prefix)] == prefix {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeStore) Read(_ context.Context, ref domain.DocumentRef) (string, error) {
	if err, ok := f.readErr[ref.Path]; ok {
		return "", err
	}
	content, ok := f.content[ref.Path]
	if !ok {
		return "", domain.ErrDocumentNotFound
	}
	return content, nil
}

type fakeRetriever struct {
	name    string
	sources []domain.Source
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, limit int) ([]domain.Source, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.sources) > limit {
		return f.sources[:limit], nil
	}
	return f.sources, nil
}

func (f *fakeRetriever) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}
