package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/postsync/pkg/channels/gochannel"
	"github.com/dukex/postsync/pkg/events"
	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub, log.Discard())
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan *events.RunFinished, 1)

	require.NoError(t, bus.Handle(events.RunFinishedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.RunFinished)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	run := &models.Run{ID: "run-1", UserID: "u1", Status: models.RunStatusCompleted, Outcome: models.OutcomePostSuccess}
	require.NoError(t, bus.Publish(ctx, run.ID, events.NewRunFinished(run, time.Second)))

	select {
	case event := <-received:
		assert.Equal(t, "run-1", event.RunID)
		assert.Equal(t, models.RunStatusCompleted, event.Status)
		assert.Equal(t, time.Second, event.Duration)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventsAreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan string, 2)

	require.NoError(t, bus.Handle(events.RunStartedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.RunStarted).Niche

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	state := models.NewWorkflowState("run-1", "devops", "u1", models.Credentials{}, 1)
	require.NoError(t, bus.Publish(ctx, "run-1", events.StepCompleted{Node: "topic_generator"}))
	require.NoError(t, bus.Publish(ctx, "run-1", events.NewRunStarted(state)))

	select {
	case niche := <-received:
		assert.Equal(t, "devops", niche)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
