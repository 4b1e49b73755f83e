// Package imagegen generates post illustrations with the Gemini generateContent API.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/protocol"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash-preview-image-generation"

	generatePath   = "/v1beta/models/{model}:generateContent"
	defaultTimeout = 90 * time.Second
	promptTemplate = "Create a clean, professional illustration for this LinkedIn post. Do not render any text in the image.\n\n%s"
)

var ErrMissingAPIKey = errors.New("imagegen: api key is required")

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini API. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("x-goog-api-key", config.APIKey).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:   httpClient,
		model:  config.Model,
		logger: logger.With("module", "imagegen", "model", config.Model),
	}, nil
}

// GenerateImage returns the bytes of the first image part of the answer, or
// nil when the model answered with text only.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	var result generateResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetBody(generateRequest{
			Contents: []content{{
				Role:  "user",
				Parts: []part{{Text: fmt.Sprintf(promptTemplate, prompt)}},
			}},
			GenerationConfig: generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
		}).
		SetResult(&result).
		Post(generatePath)
	if err != nil {
		return nil, protocol.NewTransientError(fmt.Errorf("gemini request: %w", err))
	}

	if resp.IsError() {
		return nil, protocol.StatusError("Gemini", resp.StatusCode(), resp.String())
	}

	for _, candidate := range result.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}

			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, protocol.NewFatalError(fmt.Errorf("decode image: %w", err))
			}

			c.logger.DebugContext(ctx, "Image generated", "mime_type", p.InlineData.MimeType, "bytes", len(data))

			return data, nil
		}
	}

	c.logger.InfoContext(ctx, "Model returned no image part")

	return nil, nil
}
