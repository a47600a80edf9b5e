package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/adesina-io/kudiflow/internal/common"
)

// geminiClient implements the Client interface using Google Gemini.
type geminiClient struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	callTimeout time.Duration
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	if cfg.Temperature > 0 {
		model.SetTemperature(float32(cfg.Temperature))
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &geminiClient{
		client:      client,
		model:       model,
		callTimeout: timeout,
	}, nil
}

// Complete sends a prompt (and optional page images) to Gemini.
func (g *geminiClient) Complete(ctx context.Context, prompt string, images [][]byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.ImageData("png", img))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		kind := common.ProviderUnavailable
		if ctx.Err() != nil {
			kind = common.ProviderTimeout
		}
		return "", common.NewProviderError("gemini", "GenerateContent", kind, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", common.NewProviderError("gemini", "GenerateContent", common.ProviderUnavailable, fmt.Errorf("empty response"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}

// Close closes the underlying Gemini client.
func (g *geminiClient) Close() error {
	return g.client.Close()
}
