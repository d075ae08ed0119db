package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/velaphi/legal-assist/internal/config"
	"github.com/velaphi/legal-assist/internal/llm"
	"google.golang.org/api/option"
)

type Completer struct {
	apiKey string
	model  string
}

// NewFactory returns a factory that binds a per-user API key to a Gemini
// completer using the configured model.
func NewFactory(cfg config.GeminiConfig) llm.Factory {
	return func(apiKey string) llm.Completer {
		return &Completer{
			apiKey: apiKey,
			model:  cfg.Model,
		}
	}
}

func (c *Completer) Name() string {
	return "gemini"
}

func (c *Completer) defaultModel() string {
	if c.model != "" {
		return c.model
	}
	return "gemini-2.5-flash"
}

func (c *Completer) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini completer is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := c.defaultModel()
	generativeModel := client.GenerativeModel(model)
	temperature := req.Temperature
	generativeModel.Temperature = &temperature

	if req.System != "" {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	if req.Schema != nil {
		// Structured output: the schema is enforced by the API, not by prose.
		generativeModel.ResponseMIMEType = "application/json"
		generativeModel.ResponseSchema = toGenaiSchema(req.Schema)
	}

	start := time.Now()
	resp, err := generativeModel.GenerateContent(ctx, genai.Text(req.Prompt))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       output,
		Model:      model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}

func toGenaiSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}

	switch s.Type {
	case llm.TypeString:
		out.Type = genai.TypeString
	case llm.TypeArray:
		out.Type = genai.TypeArray
	case llm.TypeObject:
		out.Type = genai.TypeObject
	}

	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}

	return out
}
