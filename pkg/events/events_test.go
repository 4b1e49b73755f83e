package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunStarted(t *testing.T) {
	state := models.NewWorkflowState("run-1", "devops", "u1", models.Credentials{AccessToken: "secret", PersonURN: "p"}, 2)

	event := NewRunStarted(state)

	assert.Equal(t, RunStartedEvent, event.GetType())
	assert.Equal(t, RunStartedEvent, event.Type)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, 2, event.MaxIterations)
	assert.NotEmpty(t, event.ID)

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
}

func TestNewRunFinished(t *testing.T) {
	run := &models.Run{
		ID:            "run-1",
		UserID:        "u1",
		Status:        models.RunStatusFailed,
		Outcome:       "post_failed: publish: 401",
		ImageAssetURN: "urn:li:asset:1",
	}

	event := NewRunFinished(run, 3*time.Second)

	assert.Equal(t, RunFinishedEvent, event.GetType())
	assert.Equal(t, models.RunStatusFailed, event.Status)
	assert.True(t, event.HasImage)
	assert.Equal(t, 3*time.Second, event.Duration)
}

func TestNewStepCompleted(t *testing.T) {
	state := models.NewWorkflowState("run-1", "devops", "u1", models.Credentials{AccessToken: "secret"}, 2)
	state.IterationCount = 1
	state.IsApproved = true

	event := NewStepCompleted(state, "reviewer", 3, "image_generation", []string{"is_approved"}, time.Millisecond)

	assert.Equal(t, StepCompletedEvent, event.GetType())
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "reviewer", event.Node)
	assert.Equal(t, 3, event.Sequence)
	assert.Equal(t, 1, event.IterationCount)
	assert.True(t, event.IsApproved)
}
