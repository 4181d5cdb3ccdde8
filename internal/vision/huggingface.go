package vision

import (
	"net/http"
	"time"
)

const (
	// DefaultHuggingFaceBaseURL is the OpenAI-compatible inference router.
	DefaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"
	DefaultHuggingFaceModel   = "llava-hf/llava-1.5-7b-hf"
)

// HuggingFaceOptions configures a Hugging Face hosted vision model.
type HuggingFaceOptions struct {
	Token      string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HuggingFaceModel talks to Hugging Face inference through its
// chat completions router, so requests have the OpenAI shape.
type HuggingFaceModel struct {
	*OpenAIModel
}

// NewHuggingFaceModel creates a Hugging Face vision model
func NewHuggingFaceModel(opts HuggingFaceOptions) *HuggingFaceModel {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultHuggingFaceBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultHuggingFaceModel
	}
	return &HuggingFaceModel{
		OpenAIModel: NewOpenAIModel(OpenAIOptions{
			APIKey:     opts.Token,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			MaxTokens:  opts.MaxTokens,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
		}),
	}
}

// Name identifies the model in analysis records.
func (m *HuggingFaceModel) Name() string {
	return "huggingface:" + m.model
}
