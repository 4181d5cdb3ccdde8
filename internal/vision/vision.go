// Package vision wraps hosted and local vision LLMs behind one interface.
package vision

import (
	"context"
	"time"
)

// GerminationPrompt is the fixed instruction sent with every analysis image.
const GerminationPrompt = "Analyze this seed germination image. Count total seeds and germinated seeds. " +
	"Provide germination rate percentage and confidence level. " +
	"Format: {germinated: X, total: Y, rate: Z%, confidence: 0.X}"

// DefaultTimeout bounds a single vision call.
const DefaultTimeout = 30 * time.Second

// Model answers a prompt about an image with free-form text.
type Model interface {
	Describe(ctx context.Context, imageURL, prompt string) (string, error)
	Name() string
}

// ImageFetcher downloads image bytes for providers that cannot fetch URLs themselves.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
