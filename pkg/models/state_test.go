package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *WorkflowState {
	return NewWorkflowState("run-1", "devops", "u1", Credentials{AccessToken: "tok", PersonURN: "urn:li:person:1"}, 2)
}

func TestNewWorkflowState(t *testing.T) {
	state := newTestState()

	assert.Equal(t, "run-1", state.RunID)
	assert.Equal(t, "tok", state.AccessToken)
	assert.Equal(t, 2, state.MaxIterations)
	assert.Empty(t, state.Topic)
	assert.Empty(t, state.FinalPost)
	assert.False(t, state.IsApproved)
	assert.Zero(t, state.IterationCount)
	assert.NotNil(t, state.Messages)
	assert.Empty(t, state.Outcome())
}

func TestWorkflowState_Apply(t *testing.T) {
	state := newTestState()

	require.NoError(t, state.Apply(StateUpdate{Topic: Ptr("topic")}))
	require.NoError(t, state.Apply(StateUpdate{PostDraft: Ptr("draft")}))

	assert.Equal(t, "topic", state.Topic)
	assert.Equal(t, "draft", state.PostDraft)

	require.NoError(t, state.Apply(StateUpdate{
		IsApproved:     Ptr(true),
		FinalPost:      Ptr("draft"),
		IterationCount: Ptr(1),
	}))
	assert.Equal(t, "topic", state.Topic, "untouched fields survive")
	assert.Equal(t, "draft", state.FinalPost)

	require.NoError(t, state.Apply(StateUpdate{Messages: []Message{SuccessMessage()}}))
	require.NoError(t, state.Apply(StateUpdate{Messages: []Message{{Role: RoleSystem, Content: "note"}}}))
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, "note", state.Outcome())
}

func TestWorkflowState_Apply_Invariants(t *testing.T) {
	t.Run("final post is immutable", func(t *testing.T) {
		state := newTestState()
		require.NoError(t, state.Apply(StateUpdate{FinalPost: Ptr("one")}))

		require.ErrorIs(t, state.Apply(StateUpdate{FinalPost: Ptr("two")}), ErrFinalPostImmutable)
		require.NoError(t, state.Apply(StateUpdate{FinalPost: Ptr("one")}))
		assert.Equal(t, "one", state.FinalPost)
	})

	t.Run("approval is monotonic", func(t *testing.T) {
		state := newTestState()
		require.NoError(t, state.Apply(StateUpdate{IsApproved: Ptr(true)}))

		require.ErrorIs(t, state.Apply(StateUpdate{IsApproved: Ptr(false)}), ErrApprovalRevoked)
		assert.True(t, state.IsApproved)
	})

	t.Run("iteration count never decreases", func(t *testing.T) {
		state := newTestState()
		require.NoError(t, state.Apply(StateUpdate{IterationCount: Ptr(2)}))

		require.ErrorIs(t, state.Apply(StateUpdate{IterationCount: Ptr(1), Topic: Ptr("x")}), ErrIterationRegressed)
		assert.Equal(t, 2, state.IterationCount)
		assert.Empty(t, state.Topic, "rejected updates are not partially applied")
	})
}

func TestWorkflowState_Clone(t *testing.T) {
	state := newTestState()
	require.NoError(t, state.Apply(StateUpdate{Messages: []Message{SuccessMessage()}}))

	clone := state.Clone()
	clone.Messages[0].Content = "changed"
	clone.Topic = "changed"

	assert.Equal(t, OutcomePostSuccess, state.Messages[0].Content)
	assert.Empty(t, state.Topic)
}

func TestWorkflowState_Succeeded(t *testing.T) {
	state := newTestState()
	assert.False(t, state.Succeeded())

	require.NoError(t, state.Apply(StateUpdate{Messages: []Message{FailureMessage("publish: 500")}}))
	assert.False(t, state.Succeeded())
	assert.Equal(t, "post_failed: publish: 500", state.Outcome())

	require.NoError(t, state.Apply(StateUpdate{Messages: []Message{SuccessMessage()}}))
	assert.True(t, state.Succeeded())
}

func TestStateUpdate_Fields(t *testing.T) {
	assert.Empty(t, StateUpdate{}.Fields())
	assert.Equal(t,
		[]string{"topic", "is_approved", "messages"},
		StateUpdate{Topic: Ptr(""), IsApproved: Ptr(false), Messages: []Message{SuccessMessage()}}.Fields(),
	)
}

func TestPersonURN(t *testing.T) {
	assert.Equal(t, "urn:li:person:abc", PersonURN("abc"))
	assert.Equal(t, "urn:li:person:abc", PersonURN("urn:li:person:abc"))
	assert.Equal(t, "urn:li:person:abc", PersonURN("  abc "))
	assert.Empty(t, PersonURN(""))
}

func TestSummaryField_Valid(t *testing.T) {
	assert.True(t, SummaryTotalCompleted.Valid())
	assert.True(t, SummaryTotalFailed.Valid())
	assert.False(t, SummaryField("total_posts").Valid())
}

func TestNewRunFromState(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		state := newTestState()
		require.NoError(t, state.Apply(StateUpdate{Topic: Ptr("t"), Messages: []Message{SuccessMessage()}}))

		run := NewRunFromState(state, []string{"topic_generator"}, started, nil)

		assert.Equal(t, RunStatusCompleted, run.Status)
		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, "u1", run.UserID)
		assert.Equal(t, OutcomePostSuccess, run.Outcome)
		assert.Equal(t, started, run.CreatedAt)
		assert.NotNil(t, run.CompletedAt)
		assert.Empty(t, run.Error)
	})

	t.Run("failed outcome", func(t *testing.T) {
		state := newTestState()
		require.NoError(t, state.Apply(StateUpdate{Messages: []Message{FailureMessage("publish: 401")}}))

		run := NewRunFromState(state, nil, started, nil)
		assert.Equal(t, RunStatusFailed, run.Status)
	})

	t.Run("engine error", func(t *testing.T) {
		run := NewRunFromState(newTestState(), nil, started, errors.New("node reviewer failed"))

		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Equal(t, "node reviewer failed", run.Error)
	})
}

func TestWorkflowState_Validate(t *testing.T) {
	require.NoError(t, newTestState().Validate())

	noCredentials := NewWorkflowState("run-1", "fitness", "u1", Credentials{}, 1)
	require.NoError(t, noCredentials.Validate())

	missingNiche := newTestState()
	missingNiche.Niche = ""
	require.ErrorIs(t, missingNiche.Validate(), ErrInvalidState)

	noBound := newTestState()
	noBound.MaxIterations = 0
	require.ErrorIs(t, noBound.Validate(), ErrInvalidState)
}
