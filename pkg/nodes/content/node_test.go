package content

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textGeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f textGeneratorFunc) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

func TestNode_Execute_FirstDraft(t *testing.T) {
	var prompt string

	node := NewNode(textGeneratorFunc(func(_ context.Context, _ string, user string) (string, error) {
		prompt = user

		return "Observability is a team sport.", nil
	}), log.Discard())

	update, err := node.Execute(context.Background(), models.WorkflowState{Topic: "Observability culture"})
	require.NoError(t, err)
	require.NotNil(t, update.PostDraft)

	assert.Equal(t, "Observability is a team sport.", *update.PostDraft)
	assert.Equal(t, "Write a LinkedIn post about: Observability culture", prompt)
	assert.Equal(t, []string{"post_draft"}, update.Fields())
}

func TestNode_Execute_Rework(t *testing.T) {
	var prompt string

	node := NewNode(textGeneratorFunc(func(_ context.Context, _ string, user string) (string, error) {
		prompt = user

		return "Second take", nil
	}), log.Discard())

	state := models.WorkflowState{
		Topic:          "Observability culture",
		PostDraft:      "Make the opening line punchier.",
		IterationCount: 1,
	}

	update, err := node.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "Second take", *update.PostDraft)
	assert.Contains(t, prompt, `"Observability culture"`)
	assert.Contains(t, prompt, "Make the opening line punchier.")
}

func TestNode_Execute_Fallback(t *testing.T) {
	node := NewNode(textGeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("connection reset")
	}), log.Discard())

	update, err := node.Execute(context.Background(), models.WorkflowState{Topic: "Edge AI"})
	require.NoError(t, err)

	assert.Equal(t, "Edge AI — quick insight", *update.PostDraft)
}

func TestRework(t *testing.T) {
	assert.False(t, Rework(models.WorkflowState{}))
	assert.False(t, Rework(models.WorkflowState{IterationCount: 1}))
	assert.False(t, Rework(models.WorkflowState{IterationCount: 1, PostDraft: "x", IsApproved: true}))
	assert.True(t, Rework(models.WorkflowState{IterationCount: 1, PostDraft: "x"}))
}
