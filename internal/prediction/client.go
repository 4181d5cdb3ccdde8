// Package prediction talks to the custom GerminationNet inference endpoint.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 5 * time.Second

	// maxErrorBody caps how much of a failed response is kept for diagnostics.
	maxErrorBody = 512
)

var (
	ErrUnexpectedStatus = errors.New("custom model returned non-2xx status")
	ErrTimeout          = errors.New("custom model request timed out")
	ErrMalformedPayload = errors.New("custom model returned malformed payload")
)

// Predictor is the subset of Client the orchestrator depends on.
type Predictor interface {
	Predict(ctx context.Context, endpoint, imageURL string) (models.CustomModelResult, error)
	Name() string
}

// Options configures a Client. Zero durations fall back to the defaults.
type Options struct {
	APIKey        string
	Timeout       time.Duration
	HealthTimeout time.Duration
	HTTPClient    *http.Client
}

// Client calls a custom model endpoint. It never retries; the orchestrator
// owns the recovery policy.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	timeout       time.Duration
	healthTimeout time.Duration
}

type predictRequest struct {
	ImageURL string `json:"image_url"`
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
	Prob        *float64 `json:"prob"`
}

// NewClient creates a custom model client
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:    opts.HTTPClient,
		apiKey:        opts.APIKey,
		timeout:       opts.Timeout,
		healthTimeout: opts.HealthTimeout,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = DefaultHealthTimeout
	}
	return c
}

// Name identifies the model in analysis records.
func (c *Client) Name() string {
	return "custom:germination-net"
}

// Predict posts the image reference to endpoint and returns the scored result.
func (c *Client) Predict(ctx context.Context, endpoint, imageURL string) (models.CustomModelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{ImageURL: imageURL})
	if err != nil {
		return models.CustomModelResult{}, apperrors.NewInternalError("failed to encode prediction request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.CustomModelResult{}, apperrors.NewValidationError("invalid custom model endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return models.CustomModelResult{}, apperrors.NewTimeoutError(
				fmt.Sprintf("custom model did not answer within %s", c.timeout),
				fmt.Errorf("%w: %v", ErrTimeout, err),
			)
		}
		return models.CustomModelResult{}, apperrors.NewUpstreamUnavailableError("custom model unreachable", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return models.CustomModelResult{}, apperrors.NewUpstreamUnavailableError(
			fmt.Sprintf("custom model returned %d", resp.StatusCode),
			resp.StatusCode,
			fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(detail))),
		)
	}

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(ctx, err) {
			return models.CustomModelResult{}, apperrors.NewTimeoutError(
				"custom model response body timed out",
				fmt.Errorf("%w: %v", ErrTimeout, err),
			)
		}
		return models.CustomModelResult{}, apperrors.NewMalformedResponseError(
			"custom model response is not valid JSON",
			fmt.Errorf("%w: %v", ErrMalformedPayload, err),
		)
	}

	probability := payload.probability()
	logger.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"probability": probability,
		"duration":    time.Since(start).String(),
	}).Debug("Custom model prediction received")

	return models.NewCustomModelResult(probability), nil
}

// probability prefers a non-zero "probability", then "prob", then 0.
// Scores outside [0,1] are clamped.
func (p predictResponse) probability() float64 {
	var v float64
	switch {
	case p.Probability != nil && *p.Probability != 0:
		v = *p.Probability
	case p.Prob != nil:
		v = *p.Prob
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HealthURL derives the health probe URL from a predict endpoint.
func HealthURL(endpoint string) string {
	return strings.Replace(endpoint, "/predict", "/health", 1)
}

// Healthy probes the endpoint's health route. When the route cannot be
// reached at all it retries with OPTIONS on the endpoint itself. Any other
// failure reports false.
func (c *Client) Healthy(ctx context.Context, endpoint string) bool {
	ok, err := c.probe(ctx, http.MethodGet, HealthURL(endpoint))
	if err == nil {
		return ok
	}
	logger.WithError(err).WithField("endpoint", endpoint).Debug("Custom model health probe failed, retrying with OPTIONS")

	ok, err = c.probe(ctx, http.MethodOptions, endpoint)
	if err != nil {
		logger.WithError(err).WithField("endpoint", endpoint).Debug("Custom model OPTIONS probe failed")
		return false
	}
	return ok
}

// probe reports whether target answered 2xx. err is set only when no
// response arrived.
func (c *Client) probe(ctx context.Context, method, target string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}

// Assessment describes a germination rate percentage in grower terms.
func Assessment(rate float64) string {
	switch {
	case rate >= 80:
		return "Excellent germination - optimal conditions"
	case rate >= 60:
		return "Good germination - normal growth expected"
	case rate >= 40:
		return "Fair germination - monitor conditions"
	case rate >= 20:
		return "Poor germination - check seed quality and environment"
	default:
		return "Very poor germination - investigate seed viability"
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
