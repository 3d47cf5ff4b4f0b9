// Package oracle calls an OpenAI-compatible vision model to classify a
// vehicle photo into a raw JSON record.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rarespot/rarespot/pkg/logger"
	"github.com/rarespot/rarespot/pkg/metrics"
)

// Classifier produces a raw model response for an image.
type Classifier interface {
	// Classify sends the image to the vision model and returns the raw
	// text content of the first choice. The text is NOT guaranteed to be
	// valid JSON; callers salvage it downstream.
	Classify(ctx context.Context, imageB64 string, mime string) (string, error)
}

// chat completions wire types (OpenAI-compatible)
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client is a resty-backed Classifier.
type Client struct {
	http        *resty.Client
	model       string
	temperature float64
	maxTokens   int
	log         logger.Logger
}

// New constructs an oracle client for the given base URL and API key.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		model:       defaultModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		log:         logger.Get(),
	}

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify implements Classifier.
func (c *Client) Classify(ctx context.Context, imageB64 string, mime string) (string, error) {
	if imageB64 == "" {
		return "", ErrEmptyImage
	}
	if mime == "" {
		mime = "image/jpeg"
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: classificationPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:%s;base64,%s", mime, imageB64),
					}},
				},
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	metrics.RecordOracleRequest()

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")

	metrics.RecordOracleLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordOracleError()
		metrics.RecordErrorByComponent("oracle", "transport")
		return "", fmt.Errorf("oracle request: %w", err)
	}
	if resp.IsError() {
		metrics.RecordOracleError()
		metrics.RecordErrorByComponent("oracle", "status")
		if out.Error != nil {
			c.log.Warn(ctx, "oracle returned error",
				logger.Int("status", resp.StatusCode()),
				logger.String("type", out.Error.Type))
			return "", fmt.Errorf("%w: %s", ErrOracleStatus, out.Error.Message)
		}
		return "", fmt.Errorf("%w: http %d", ErrOracleStatus, resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		metrics.RecordOracleError()
		metrics.RecordErrorByComponent("oracle", "empty_response")
		return "", ErrEmptyResponse
	}

	return out.Choices[0].Message.Content, nil
}
