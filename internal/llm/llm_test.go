package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Model: "gemini-flash-lite-latest"})
	if err == nil {
		t.Error("expected error when API key is empty")
	}
}

func TestExtractTextEmptyResponse(t *testing.T) {
	if got := extractText(nil); got != "" {
		t.Errorf("expected empty string for nil response, got %q", got)
	}
	if got := extractText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty string for response with no candidates, got %q", got)
	}
}

func TestExtractTextConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("hello "), genai.Text("world")},
				},
			},
		},
	}
	if got := extractText(resp); got != "hello world" {
		t.Errorf("expected concatenated parts, got %q", got)
	}
}
