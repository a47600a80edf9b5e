package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// Config holds configuration for the LLM interpreter.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	CallTimeout time.Duration
}

// Interpreter implements service.DocumentInterpreter on top of a provider
// client, adding rate limiting, per-call retry, strict re-prompting on
// malformed output, and a TTL cache for classification calls.
type Interpreter struct {
	client      Client
	cache       *classificationCache
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewInterpreter creates an interpreter for the configured provider.
func NewInterpreter(ctx context.Context, cfg Config) (*Interpreter, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		client, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return NewInterpreterWithClient(client, cfg), nil
}

// NewInterpreterWithClient wires an interpreter around an existing client.
// Used directly by tests with a mock client.
func NewInterpreterWithClient(client Client, cfg Config) *Interpreter {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Interpreter{
		client:      client,
		cache:       newClassificationCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
	}
}

// InterpretText extracts transactions from statement text.
func (i *Interpreter) InterpretText(ctx context.Context, text string) ([]model.Transaction, error) {
	return i.interpret(ctx, func(strict bool) (string, [][]byte) {
		return textExtractionPrompt(text, strict), nil
	})
}

// InterpretImages extracts transactions from a batch of page images.
func (i *Interpreter) InterpretImages(ctx context.Context, pages [][]byte) ([]model.Transaction, error) {
	return i.interpret(ctx, func(strict bool) (string, [][]byte) {
		return imageExtractionPrompt(len(pages), strict), pages
	})
}

// interpret runs one interpretation call. Transient provider failures retry
// with backoff; a parse failure retries the single call exactly once with a
// stricter reminder prompt before failing the batch.
func (i *Interpreter) interpret(ctx context.Context, build func(strict bool) (string, [][]byte)) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for attempt, strict := 0, false; attempt < 2; attempt++ {
		prompt, images := build(strict)

		var content string
		err := common.WithRetry(ctx, func() error {
			if waitErr := i.rateLimiter.wait(ctx); waitErr != nil {
				return waitErr
			}
			var callErr error
			content, callErr = i.client.Complete(ctx, prompt, images)
			return callErr
		}, i.retryOpts)
		if err != nil {
			return nil, err
		}

		transactions, err = parseTransactions(content)
		if err == nil {
			return transactions, nil
		}

		var parseErr *common.ParseError
		if !errors.As(err, &parseErr) || strict {
			return nil, err
		}

		slog.Warn("Interpretation returned malformed output, retrying with strict reminder",
			"error", parseErr.Err)
		strict = true
	}

	return nil, common.NewParseError("", fmt.Errorf("strict retry exhausted"))
}

// Classify returns a category for a single transaction description. Results
// are cached per scope and normalized description.
func (i *Interpreter) Classify(ctx context.Context, req service.ClassifyRequest) (model.ClassificationResult, error) {
	key := req.Business.ScopeID + "|" + strings.ToLower(strings.TrimSpace(req.Description))
	if result, found := i.cache.get(key); found {
		return result, nil
	}

	var content string
	err := common.WithRetry(ctx, func() error {
		if waitErr := i.rateLimiter.wait(ctx); waitErr != nil {
			return waitErr
		}
		var callErr error
		content, callErr = i.client.Complete(ctx, classifyPrompt(req), nil)
		return callErr
	}, i.retryOpts)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	result, err := parseClassification(content)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	i.cache.set(key, result)
	return result, nil
}

// Close releases the provider client and stops the rate limiter.
func (i *Interpreter) Close() error {
	i.rateLimiter.stop()
	return i.client.Close()
}
