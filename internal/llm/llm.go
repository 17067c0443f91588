// Package llm wraps the Gemini generation and embedding capability the
// core depends on. The Ingest Pipeline depends only on Generate and Embed
// (spec §9's "cyclic agent/rank/LLM graph" design note); this package is
// the one place network transport details for the LLM live.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client wraps a Gemini client for text generation and embeddings.
type Client struct {
	genai          *genai.Client
	modelName      string
	embeddingModel string
	timeout        time.Duration
}

// Config configures a new Client.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

// NewClient constructs a Client against the Gemini API. It is the one
// place in the core that opens a network-backed handle; callers should
// construct it once per process and share it.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: no API key configured")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-flash-lite-latest"
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "gemini-embedding-001"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	gClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("llm: creating genai client: %w", err)
	}

	return &Client{
		genai:          gClient,
		modelName:      model,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}, nil
}

// Close releases the underlying genai client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// Generate produces text for a single prompt, the core's `Generate`
// capability (spec §9).
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.genai.GenerativeModel(c.modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	return extractText(resp), nil
}

// Embed produces embedding vectors for a batch of texts,
// preserving input order, the core's `Embed` capability (spec §9).
// Embedding normalization to unit L2 norm happens in internal/embed;
// this method returns whatever the backend gives back.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.genai.EmbeddingModel(c.embeddingModel)
	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("llm: batch embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("llm: embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(texts))
	for i, e := range resp.Embeddings {
		vec := make([]float64, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

// extractText pulls the plain-text content out of a GenerateContentResponse,
// falling back to an empty string on any unexpected shape rather than
// panicking — matching the teacher's parse-or-fallback idiom throughout
// internal/llm/llm.go (parseWhyItMattersResponse, parseRelevanceResponse).
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
