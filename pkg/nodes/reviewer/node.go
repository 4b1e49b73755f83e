// Package reviewer provides the node that critiques drafts and decides on
// approval.
package reviewer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/otelhelper"
	"github.com/dukex/postsync/pkg/protocol"
)

const ID = "reviewer"

const (
	SystemPrompt = `You are a demanding LinkedIn editor. Review the draft for clarity, hook strength,
accuracy and tone. If it is ready to publish as is, answer with the single word APPROVED.
Otherwise answer with a short, actionable critique the writer can apply in one rewrite.`

	userPromptPrefix = "Review this LinkedIn post draft:\n\n"

	// FallbackCritique asks for another pass when no critique could be generated.
	FallbackCritique = "Minor rewrite suggested."
)

// Node critiques post_draft. Accepting a draft promotes it to final_post;
// rejecting it replaces post_draft with the critique for the content creator.
type Node struct {
	generator     protocol.TextGenerator
	logger        *slog.Logger
	maxIterations int
}

type Option func(*Node)

// WithMaxIterations sets the bound used when the run state carries none.
func WithMaxIterations(maxIterations int) Option {
	return func(n *Node) {
		if maxIterations > 0 {
			n.maxIterations = maxIterations
		}
	}
}

func NewNode(generator protocol.TextGenerator, logger *slog.Logger, opts ...Option) *Node {
	node := &Node{
		generator:     generator,
		logger:        logger.With("module", "reviewer_node"),
		maxIterations: 1,
	}

	for _, opt := range opts {
		opt(node)
	}

	return node
}

func (n *Node) ID() string {
	return ID
}

func (n *Node) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	verdict := n.Review(ctx, state)

	if verdict.Accepted() {
		if verdict.Forced {
			n.logger.WarnContext(ctx, "Iteration bound reached, accepting draft without approval",
				"run_id", state.RunID, "iteration", verdict.Iteration)
		}

		return models.StateUpdate{
			IsApproved:     models.Ptr(true),
			FinalPost:      models.Ptr(state.PostDraft),
			IterationCount: models.Ptr(verdict.Iteration),
		}, nil
	}

	return models.StateUpdate{
		IsApproved:     models.Ptr(false),
		PostDraft:      models.Ptr(verdict.Critique),
		IterationCount: models.Ptr(verdict.Iteration),
	}, nil
}

// Review runs one critique pass over state.PostDraft.
func (n *Node) Review(ctx context.Context, state models.WorkflowState) Verdict {
	iteration := state.IterationCount + 1
	maxIterations := n.bound(state)

	critique, err := n.generator.GenerateText(ctx, SystemPrompt, userPromptPrefix+state.PostDraft)
	critique = strings.TrimSpace(critique)

	if err != nil || critique == "" {
		critique = Fallback(iteration, maxIterations)

		n.logger.WarnContext(ctx, "Review generation failed, using fallback",
			"run_id", state.RunID, "iteration", iteration, "critique", critique, "error", err)
		otelhelper.RecordFallback(ctx, "review generation failed")
	}

	return ParseVerdict(critique, iteration, maxIterations)
}

func (n *Node) bound(state models.WorkflowState) int {
	if state.MaxIterations > 0 {
		return state.MaxIterations
	}

	return n.maxIterations
}

// Fallback approves once the bound is reached and asks for a rewrite otherwise.
func Fallback(iteration, maxIterations int) string {
	if iteration >= maxIterations {
		return ApprovalToken
	}

	return FallbackCritique
}
