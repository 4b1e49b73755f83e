// Package content provides the node that writes and rewrites post drafts.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/otelhelper"
	"github.com/dukex/postsync/pkg/protocol"
)

const ID = "content_creator"

const (
	SystemPrompt = `You are a LinkedIn ghostwriter. Write engaging, concise posts in the first person:
a strong opening line, two or three short paragraphs with one concrete takeaway, and at most
three relevant hashtags at the end. Answer with the post text only.`

	draftPromptTemplate  = "Write a LinkedIn post about: %s"
	reworkPromptTemplate = "Rewrite the LinkedIn post about %q following this reviewer feedback:\n\n%s"
)

// Node produces post_draft from the topic, or from the reviewer critique when
// the previous draft was sent back for rework.
type Node struct {
	generator protocol.TextGenerator
	logger    *slog.Logger
}

func NewNode(generator protocol.TextGenerator, logger *slog.Logger) *Node {
	return &Node{
		generator: generator,
		logger:    logger.With("module", "content_node"),
	}
}

func (n *Node) ID() string {
	return ID
}

func (n *Node) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	prompt := UserPrompt(state)

	draft, err := n.generator.GenerateText(ctx, SystemPrompt, prompt)
	draft = strings.TrimSpace(draft)

	if err != nil || draft == "" {
		draft = Fallback(state.Topic)

		n.logger.WarnContext(ctx, "Content generation failed, using fallback",
			"run_id", state.RunID, "iteration", state.IterationCount, "error", err)
		otelhelper.RecordFallback(ctx, "content generation failed")
	}

	return models.StateUpdate{PostDraft: &draft}, nil
}

// Rework reports whether state carries a reviewer critique to act on.
func Rework(state models.WorkflowState) bool {
	return state.IterationCount > 0 && !state.IsApproved && state.PostDraft != ""
}

// UserPrompt renders the draft prompt, or the rework prompt when the reviewer
// asked for changes.
func UserPrompt(state models.WorkflowState) string {
	if Rework(state) {
		return fmt.Sprintf(reworkPromptTemplate, state.Topic, state.PostDraft)
	}

	return fmt.Sprintf(draftPromptTemplate, state.Topic)
}

// Fallback is the draft used when no draft could be generated.
func Fallback(topic string) string {
	return topic + " — quick insight"
}
