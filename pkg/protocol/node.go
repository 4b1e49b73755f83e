// Package protocol defines the contracts between the workflow engine, its nodes
// and the external capabilities they call.
package protocol

import (
	"context"

	"github.com/dukex/postsync/pkg/models"
)

// Node is one named step of the workflow graph. Execute receives a copy of the
// current state and returns the fields it wants to change.
type Node interface {
	// ID returns the node name used by graph edges.
	ID() string

	// Execute computes the partial update for the given state.
	Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error)
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc struct {
	Name string
	Fn   func(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error)
}

func (n NodeFunc) ID() string {
	return n.Name
}

func (n NodeFunc) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	return n.Fn(ctx, state)
}
