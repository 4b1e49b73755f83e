// Package topic provides the node that picks the subject of a post.
package topic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/otelhelper"
	"github.com/dukex/postsync/pkg/protocol"
)

// ID is the graph name of the topic node.
const ID = "topic_generator"

const (
	SystemPrompt = `You are a LinkedIn content strategist. You suggest post topics that are specific,
timely and useful to professionals working in the given niche. Answer with the topic only,
on a single line, without quotes or numbering.`

	userPromptTemplate = "Suggest one LinkedIn post topic for the %q niche."
)

// Node asks the text generator for a topic and falls back to a timestamped
// placeholder when generation fails.
type Node struct {
	generator protocol.TextGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewNode(generator protocol.TextGenerator, logger *slog.Logger) *Node {
	return &Node{
		generator: generator,
		logger:    logger.With("module", "topic_node"),
		now:       time.Now,
	}
}

func (n *Node) ID() string {
	return ID
}

func (n *Node) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	topic, err := n.generator.GenerateText(ctx, SystemPrompt, UserPrompt(state.Niche))
	topic = strings.TrimSpace(topic)

	if err != nil || topic == "" {
		topic = Fallback(state.Niche, n.now())

		n.logger.WarnContext(ctx, "Topic generation failed, using fallback",
			"run_id", state.RunID, "topic", topic, "error", err)
		otelhelper.RecordFallback(ctx, "topic generation failed")
	}

	return models.StateUpdate{Topic: &topic}, nil
}

// UserPrompt renders the user prompt for niche.
func UserPrompt(niche string) string {
	return fmt.Sprintf(userPromptTemplate, niche)
}

// Fallback is the topic used when no topic could be generated.
func Fallback(niche string, at time.Time) string {
	return niche + " insight " + at.UTC().Format(time.RFC3339)
}
