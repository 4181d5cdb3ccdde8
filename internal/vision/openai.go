package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIModel     = openai.GPT4oMini
	DefaultOpenAIMaxTokens = 500
)

// OpenAIOptions configures an OpenAI-compatible chat completion backend.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIModel sends the image by URL; the provider downloads it.
type OpenAIModel struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIModel creates an OpenAI vision model
func NewOpenAIModel(opts OpenAIOptions) *OpenAIModel {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	m := &OpenAIModel{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
	}
	if m.model == "" {
		m.model = DefaultOpenAIModel
	}
	if m.maxTokens <= 0 {
		m.maxTokens = DefaultOpenAIMaxTokens
	}
	return m
}

// Name identifies the model in analysis records.
func (m *OpenAIModel) Name() string {
	return "openai:" + m.model
}

// Describe returns the first choice's text.
func (m *OpenAIModel) Describe(ctx context.Context, imageURL, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", mapOpenAIError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewUpstreamRejectedError(
			fmt.Sprintf("vision provider error: %s", apiErr.Message),
			apiErr.HTTPStatusCode,
			err,
		)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.NewUpstreamRejectedError(
			fmt.Sprintf("vision provider returned %d", reqErr.HTTPStatusCode),
			reqErr.HTTPStatusCode,
			err,
		)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewUpstreamRejectedError("vision provider timed out", http.StatusGatewayTimeout, err)
	}
	return apperrors.NewUpstreamRejectedError("vision provider unreachable", 0, err)
}
