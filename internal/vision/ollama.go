package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaModel = "llava"

// OllamaOptions configures a local Ollama backend.
type OllamaOptions struct {
	URL        string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OllamaModel downloads the image itself and sends the bytes inline.
type OllamaModel struct {
	client  *api.Client
	fetcher ImageFetcher
	model   string
	timeout time.Duration
}

// NewOllamaModel creates an Ollama vision model
func NewOllamaModel(opts OllamaOptions, fetcher ImageFetcher) (*OllamaModel, error) {
	parsedURL, err := url.Parse(opts.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid ollama URL %q", opts.URL), err)
	}

	// Only scheme and host are kept; the SDK adds the /api paths.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	m := &OllamaModel{
		client:  api.NewClient(baseURL, httpClient),
		fetcher: fetcher,
		model:   opts.Model,
		timeout: opts.Timeout,
	}
	if m.model == "" {
		m.model = DefaultOllamaModel
	}
	return m, nil
}

// Name identifies the model in analysis records.
func (m *OllamaModel) Name() string {
	return "ollama:" + m.model
}

// Describe fetches the image and runs a non-streaming chat.
func (m *OllamaModel) Describe(ctx context.Context, imageURL, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	imgBytes, err := m.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return "", apperrors.NewUpstreamRejectedError("failed to fetch image for vision model", 0, err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: m.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var content string
	err = m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", apperrors.NewUpstreamRejectedError(
				fmt.Sprintf("ollama error: %s", statusErr.ErrorMessage),
				statusErr.StatusCode,
				err,
			)
		}
		return "", apperrors.NewUpstreamRejectedError("ollama unreachable", 0, err)
	}

	return content, nil
}
