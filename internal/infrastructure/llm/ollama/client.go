package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
	"github.com/n0rvyn/vault-rag/internal/infrastructure/resilience"
)

// Client talks to an Ollama server and implements the ports.LLM contract:
// chat completion (optionally streaming) and text embedding.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout time.Duration
	// Executor, when set, wraps non-streaming calls with retry and circuit
	// breaking. Streaming chat runs unwrapped: chunks already pushed to the
	// sink cannot be recalled, so a retry would duplicate output.
	Executor *resilience.Executor
}

func New(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type chatResponse struct {
	Message domain.ChatMessage `json:"message"`
	Done    bool               `json:"done"`
}

// Chat completes a conversation. With a non-nil sink the response is
// streamed: each produced fragment is pushed to the sink and the
// concatenated text is still returned.
func (c *Client) Chat(ctx context.Context, messages []domain.ChatMessage, sink domain.StreamSink) (string, error) {
	if sink != nil {
		return c.chatStream(ctx, messages, sink)
	}

	var text string
	call := func(ctx context.Context) error {
		var response chatResponse
		if err := c.postJSON(ctx, "/api/chat", chatRequest{
			Model:    c.genModel,
			Messages: messages,
			Stream:   false,
		}, &response, "chat"); err != nil {
			return err
		}
		text = strings.TrimSpace(response.Message.Content)
		return nil
	}

	if err := c.execute(ctx, "ollama.chat", call); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) chatStream(ctx context.Context, messages []domain.ChatMessage, sink domain.StreamSink) (string, error) {
	resp, err := c.post(ctx, "/api/chat", chatRequest{
		Model:    c.genModel,
		Messages: messages,
		Stream:   true,
	}, "chat")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk chatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return full.String(), fmt.Errorf("decode chat stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			sink(chunk.Message.Content)
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read chat stream: %w", err)
	}
	return strings.TrimSpace(full.String()), nil
}

// Embed computes the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": text,
	}

	var vector []float32
	call := func(ctx context.Context) error {
		var response struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := c.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
			return err
		}
		if len(response.Embeddings) == 0 {
			return fmt.Errorf("empty embedding result")
		}
		vector = response.Embeddings[0]
		return nil
	}

	if err := c.execute(ctx, "ollama.embed", call); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, classifyBackendError)
}
