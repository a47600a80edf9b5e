// Package llm implements the multimodal interpretation and classification
// capabilities on top of provider clients.
package llm

import (
	"context"
)

// Client defines the interface for LLM providers. Implementations return the
// raw completion text; parsing and schema enforcement live in this package.
type Client interface {
	// Complete sends a prompt, optionally with page images, and returns the
	// model's text response.
	Complete(ctx context.Context, prompt string, images [][]byte) (string, error)
	// Close releases provider resources.
	Close() error
}
