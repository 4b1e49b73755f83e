// Package llm implements text generation on top of an OpenAI compatible chat
// completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/protocol"
	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7

	defaultMaxRetries  = 2
	defaultBackoffBase = 500 * time.Millisecond
	defaultTimeout     = 60 * time.Second
)

var ErrEmptyResponse = errors.New("model returned no choices")

var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxRetries  uint64
	BackoffBase time.Duration
	Timeout     time.Duration
}

func (c *Config) setDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}

	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client generates text with a langchaingo model. It is safe for concurrent use.
type Client struct {
	model  llms.Model
	config Config
	logger *slog.Logger
}

// New creates a client for the OpenAI chat completion API.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}

	config.setDefaults()

	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai model: %w", err)
	}

	return NewWithModel(model, config, logger), nil
}

// NewWithModel wraps an already built model.
func NewWithModel(model llms.Model, config Config, logger *slog.Logger) *Client {
	config.setDefaults()

	return &Client{
		model:  model,
		config: config,
		logger: logger.With("module", "llm", "model", config.Model),
	}
}

// GenerateText sends a system and a user message and returns the first choice.
// Transient failures are retried with exponential backoff.
func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	backoff := retry.WithMaxRetries(c.config.MaxRetries, retry.NewExponential(c.config.BackoffBase))

	var text string

	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		resp, err := c.model.GenerateContent(callCtx, messages, llms.WithTemperature(c.config.Temperature))
		if err != nil {
			classified := classify(ctx, err)
			if protocol.IsTransient(classified) {
				c.logger.WarnContext(ctx, "Text generation failed, retrying", "attempt", attempt, "error", err)

				return retry.RetryableError(classified)
			}

			return classified
		}

		if resp == nil || len(resp.Choices) == 0 {
			return protocol.NewFatalError(ErrEmptyResponse)
		}

		text = strings.TrimSpace(resp.Choices[0].Content)

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}

	return text, nil
}

// classify maps a model error to a transient or fatal error. Status codes are
// read from the error text because the openai client does not expose them.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return protocol.NewFatalError(err)
	}

	if match := statusPattern.FindStringSubmatch(err.Error()); match != nil {
		status, _ := strconv.Atoi(match[1])

		return protocol.StatusError("OpenAI", status, err.Error())
	}

	return protocol.NewTransientError(err)
}
