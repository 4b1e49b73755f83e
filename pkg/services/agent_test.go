package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukex/postsync/pkg/credentials"
	"github.com/dukex/postsync/pkg/eventbus"
	"github.com/dukex/postsync/pkg/events"
	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/mocks"
	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/nodes/content"
	"github.com/dukex/postsync/pkg/nodes/image"
	"github.com/dukex/postsync/pkg/nodes/publish"
	"github.com/dukex/postsync/pkg/nodes/reviewer"
	"github.com/dukex/postsync/pkg/nodes/topic"
	"github.com/dukex/postsync/pkg/persistence/file"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/dukex/postsync/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type approvingText struct{}

func (approvingText) GenerateText(_ context.Context, system, _ string) (string, error) {
	switch system {
	case topic.SystemPrompt:
		return "Progressive overload for desk workers", nil
	case content.SystemPrompt:
		return "Three habits that kept me training through a busy quarter.", nil
	default:
		return "APPROVED, ship it", nil
	}
}

type noImages struct{}

func (noImages) GenerateImage(context.Context, string) ([]byte, error) {
	return nil, nil
}

type noUploads struct{}

func (noUploads) UploadMedia(context.Context, string, models.Credentials) (string, error) {
	return "", errors.New("not called")
}

type recordingPublisher struct {
	requests []protocol.PublishRequest
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, req protocol.PublishRequest) (*protocol.PublishResult, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}

	return &protocol.PublishResult{PostID: "urn:li:share:42"}, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.EventType
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event.GetType())

	return nil
}

type agentHarness struct {
	agent     *Agent
	store     *file.Persistence
	resolver  *credentials.Resolver
	publisher *recordingPublisher
	bus       *recordingBus
}

func newAgentHarness(t *testing.T) *agentHarness {
	t.Helper()

	logger := log.Discard()
	store := file.NewPersistence(t.TempDir())
	publisher := &recordingPublisher{}
	resolver := credentials.NewResolver(store, logger)
	bus := &recordingBus{}

	graph, err := workflow.NewPostGraph(workflow.PostNodes{
		TopicGenerator:  topic.NewNode(approvingText{}, logger),
		ContentCreator:  content.NewNode(approvingText{}, logger),
		Reviewer:        reviewer.NewNode(approvingText{}, logger),
		ImageGeneration: image.NewNode(noImages{}, noUploads{}, logger, image.WithTempDir(t.TempDir())),
		PostExecutor:    publish.NewNode(publisher, store, logger),
	})
	require.NoError(t, err)

	agent := NewAgent(workflow.NewExecutor(graph, workflow.WithLogger(logger)), resolver, store, logger,
		WithEventPublisher(bus),
		WithMaxIterations(1),
	)

	return &agentHarness{agent: agent, store: store, resolver: resolver, publisher: publisher, bus: bus}
}

func TestAgent_Start_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newAgentHarness(t)
	require.NoError(t, h.resolver.Save(ctx, "u1", models.Credentials{AccessToken: "token", PersonURN: "abc123"}))

	result, err := h.agent.Start(ctx, StartRequest{Niche: "fitness", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.State.IterationCount)
	assert.True(t, result.State.IsApproved)
	assert.Equal(t, models.OutcomePostSuccess, result.State.Outcome())
	assert.Empty(t, result.State.ImageAssetURN)

	assert.Equal(t, models.RunStatusCompleted, result.Run.Status)
	assert.Equal(t, []string{
		workflow.NodeTopicGenerator, workflow.NodeContentCreator, workflow.NodeReviewer,
		workflow.NodeImageGeneration, workflow.NodePostExecutor,
	}, result.Run.Steps)

	require.Len(t, h.publisher.requests, 1)
	assert.Equal(t, "urn:li:person:abc123", h.publisher.requests[0].Credentials.PersonURN)

	summary, err := h.store.JobSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalCompleted)

	total, err := h.store.TotalPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	runs, err := h.store.Runs(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.Run.ID, runs[0].ID)

	assert.Equal(t, []events.EventType{
		events.RunStartedEvent,
		events.StepCompletedEvent, events.StepCompletedEvent, events.StepCompletedEvent,
		events.StepCompletedEvent, events.StepCompletedEvent,
		events.RunFinishedEvent,
	}, h.bus.events)
}

func TestAgent_Start_Unauthorized(t *testing.T) {
	ctx := context.Background()
	h := newAgentHarness(t)

	result, err := h.agent.Start(ctx, StartRequest{Niche: "fitness", UserID: "u404"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsUnauthorized(err))
	require.ErrorIs(t, err, credentials.ErrNotFound)
	assert.Empty(t, h.bus.events)
	assert.Empty(t, h.publisher.requests)

	runs, err := h.store.Runs(ctx, "u404", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

type incompleteResolver struct{}

func (incompleteResolver) Resolve(context.Context, string) (*models.Credentials, error) {
	return nil, credentials.ErrIncompleteCredentials
}

func TestAgent_Start_IncompleteCredentials(t *testing.T) {
	h := newAgentHarness(t)
	h.agent.resolver = incompleteResolver{}

	_, err := h.agent.Start(context.Background(), StartRequest{Niche: "fitness", UserID: "u1"})

	assert.True(t, IsUnauthorized(err))
}

func TestAgent_Start_Validation(t *testing.T) {
	h := newAgentHarness(t)

	_, err := h.agent.Start(context.Background(), StartRequest{Niche: "   ", UserID: "u1"})
	assert.True(t, IsValidationError(err))

	_, err = h.agent.Start(context.Background(), StartRequest{Niche: "fitness"})
	assert.True(t, IsValidationError(err))
}

func TestAgent_Start_PublishFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	h := newAgentHarness(t)
	h.publisher.err = protocol.StatusError("linkedin", 401, "expired token")
	require.NoError(t, h.resolver.Save(ctx, "u1", models.Credentials{AccessToken: "token", PersonURN: "abc123"}))

	result, err := h.agent.Start(ctx, StartRequest{Niche: "fitness", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, result.Run.Status)
	assert.Contains(t, result.Run.Outcome, models.OutcomePostFailed)

	summary, err := h.store.JobSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalFailed)
	assert.Equal(t, int64(0), summary.TotalCompleted)

	total, err := h.store.TotalPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAgent_Start_NodeErrorIsRecorded(t *testing.T) {
	ctx := context.Background()
	h := newAgentHarness(t)
	require.NoError(t, h.resolver.Save(ctx, "u1", models.Credentials{AccessToken: "token", PersonURN: "abc123"}))

	boom := errors.New("boom")
	graph := workflow.NewGraph().
		AddNode(protocol.NodeFunc{Name: "explode", Fn: func(context.Context, models.WorkflowState) (models.StateUpdate, error) {
			return models.StateUpdate{}, boom
		}}).
		SetEntryPoint("explode").
		AddEdge("explode", workflow.End)
	require.NoError(t, graph.Compile())
	h.agent.executor = workflow.NewExecutor(graph, workflow.WithLogger(log.Discard()))

	result, err := h.agent.Start(ctx, StartRequest{Niche: "fitness", UserID: "u1"})

	require.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	assert.Equal(t, models.RunStatusFailed, result.Run.Status)
	assert.Contains(t, result.Run.Error, "boom")
	assert.Equal(t, events.RunFinishedEvent, h.bus.events[len(h.bus.events)-1])
}

func TestAgent_Start_RecordingFailuresDoNotFailRun(t *testing.T) {
	ctx := context.Background()
	h := newAgentHarness(t)
	require.NoError(t, h.resolver.Save(ctx, "u1", models.Credentials{AccessToken: "token", PersonURN: "abc123"}))

	store := &mocks.MockPersistence{}
	store.On("IncrementJobSummary", mock.Anything, "u1", models.SummaryTotalCompleted).Return(errors.New("summary down"))
	store.On("SaveRun", mock.Anything, mock.AnythingOfType("*models.Run")).Return(errors.New("runs down"))

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	h.agent.store = store
	h.agent.publisher = bus

	result, err := h.agent.Start(ctx, StartRequest{Niche: "fitness", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, result.Run.Status)
	assert.Equal(t, models.OutcomePostSuccess, result.State.Outcome())
	store.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "Publish", 7)
}
