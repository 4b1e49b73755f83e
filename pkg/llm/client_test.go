package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	errs     []error
	answer   string
	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = messages

	for _, opt := range options {
		opt(&m.options)
	}

	if m.calls <= len(m.errs) && m.errs[m.calls-1] != nil {
		return nil, m.errs[m.calls-1]
	}

	if m.answer == "" {
		return &llms.ContentResponse{}, nil
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.answer}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newTestClient(model llms.Model) *Client {
	return NewWithModel(model, Config{BackoffBase: time.Millisecond, MaxRetries: 2}, log.Discard())
}

func TestClient_GenerateText(t *testing.T) {
	model := &fakeModel{answer: "  A topic \n"}

	text, err := newTestClient(model).GenerateText(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, "A topic", text)
	assert.Equal(t, 1, model.calls)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: "system prompt"}, model.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.InDelta(t, DefaultTemperature, model.options.Temperature, 0.0001)
}

func TestClient_GenerateText_RetriesTransient(t *testing.T) {
	model := &fakeModel{
		errs:   []error{errors.New("API returned unexpected status code: 429: slow down"), errors.New("connection reset by peer")},
		answer: "ok",
	}

	text, err := newTestClient(model).GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, model.calls)
}

func TestClient_GenerateText_FatalIsNotRetried(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("API returned unexpected status code: 401: invalid api key")}}

	_, err := newTestClient(model).GenerateText(context.Background(), "s", "u")
	require.Error(t, err)

	assert.True(t, protocol.IsFatal(err))
	assert.Equal(t, 1, model.calls)
}

func TestClient_GenerateText_GivesUp(t *testing.T) {
	failure := errors.New("API returned unexpected status code: 503: overloaded")
	model := &fakeModel{errs: []error{failure, failure, failure, failure}}

	_, err := newTestClient(model).GenerateText(context.Background(), "s", "u")
	require.Error(t, err)

	assert.Equal(t, 3, model.calls)
}

func TestClient_GenerateText_EmptyResponse(t *testing.T) {
	_, err := newTestClient(&fakeModel{}).GenerateText(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, log.Discard())
	require.Error(t, err)

	client, err := New(Config{APIKey: "sk-test", BaseURL: "http://localhost:0/v1"}, log.Discard())
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.config.Model)
}
