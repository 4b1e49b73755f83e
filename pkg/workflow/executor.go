package workflow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxSteps = 50

// ErrStepBudgetExceeded stops a run whose graph keeps cycling past the step budget.
var ErrStepBudgetExceeded = errors.New("step budget exceeded")

// StepError reports the node that terminated a run.
type StepError struct {
	Node string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.Node, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepEvent is emitted after each node has run and its update was merged.
type StepEvent struct {
	RunID    string                `json:"run_id"`
	Node     string                `json:"node"`
	Sequence int                   `json:"sequence"`
	Next     string                `json:"next"`
	Update   models.StateUpdate    `json:"update"`
	State    *models.WorkflowState `json:"state"`
	Duration time.Duration         `json:"duration"`
}

// Executor runs a compiled graph against a workflow state.
type Executor struct {
	graph    *Graph
	logger   *slog.Logger
	tracer   trace.Tracer
	maxSteps int
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithMaxSteps bounds the number of node executions of a single run.
func WithMaxSteps(steps int) Option {
	return func(e *Executor) {
		if steps > 0 {
			e.maxSteps = steps
		}
	}
}

func NewExecutor(graph *Graph, opts ...Option) *Executor {
	executor := &Executor{
		graph:    graph,
		logger:   slog.Default(),
		tracer:   otelhelper.Tracer("postsync/workflow"),
		maxSteps: defaultMaxSteps,
	}

	for _, opt := range opts {
		opt(executor)
	}

	executor.logger = executor.logger.With("module", "workflow_executor")

	return executor
}

// Stream runs the graph from its entry point, mutating state in place, and
// yields one event per completed node. Iteration stops at End, at the first
// error, or when the consumer stops ranging.
func (e *Executor) Stream(ctx context.Context, state *models.WorkflowState) iter.Seq2[StepEvent, error] {
	return func(yield func(StepEvent, error) bool) {
		if !e.graph.compiled {
			yield(StepEvent{}, ErrGraphNotCompiled)

			return
		}

		if err := state.Validate(); err != nil {
			yield(StepEvent{}, err)

			return
		}

		logger := e.logger.With("run_id", state.RunID, "user_id", state.UserID)

		ctx, runSpan := otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
			attribute.String(otelhelper.RunIDKey, state.RunID),
			attribute.String(otelhelper.UserIDKey, state.UserID),
			attribute.String(otelhelper.NicheKey, state.Niche),
		)
		defer runSpan.End()

		current := e.graph.entry

		for sequence := 1; current != End; sequence++ {
			if sequence > e.maxSteps {
				err := fmt.Errorf("%w: %d steps", ErrStepBudgetExceeded, e.maxSteps)
				otelhelper.SetError(runSpan, err)
				yield(StepEvent{}, err)

				return
			}

			event, err := e.step(ctx, logger, current, sequence, state)
			if err != nil {
				otelhelper.SetError(runSpan, err)
				logger.ErrorContext(ctx, "Workflow node failed", "node", current, "error", err)
				yield(event, err)

				return
			}

			if !yield(event, nil) {
				return
			}

			current = event.Next
		}

		runSpan.SetAttributes(attribute.String(otelhelper.OutcomeKey, state.Outcome()))
		logger.InfoContext(ctx, "Workflow run finished", "outcome", state.Outcome(), "iterations", state.IterationCount)
	}
}

// Run drains Stream and returns the final state.
func (e *Executor) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	for _, err := range e.Stream(ctx, state) {
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

func (e *Executor) step(ctx context.Context, logger *slog.Logger, name string, sequence int, state *models.WorkflowState) (StepEvent, error) {
	node, ok := e.graph.node(name)
	if !ok {
		return StepEvent{}, &StepError{Node: name, Err: ErrUnknownNode}
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node "+name,
		attribute.String(otelhelper.NodeKey, name),
		attribute.Int(otelhelper.StepKey, sequence),
	)
	defer span.End()

	started := time.Now()

	update, err := node.Execute(ctx, *state)
	if err != nil {
		otelhelper.SetError(span, err)

		return StepEvent{}, &StepError{Node: name, Err: err}
	}

	err = state.Apply(update)
	if err != nil {
		otelhelper.SetError(span, err)

		return StepEvent{}, &StepError{Node: name, Err: fmt.Errorf("merge update: %w", err)}
	}

	next, err := e.graph.Next(name, state)
	if err != nil {
		otelhelper.SetError(span, err)

		return StepEvent{}, &StepError{Node: name, Err: err}
	}

	duration := time.Since(started)
	span.SetAttributes(attribute.Int(otelhelper.IterationKey, state.IterationCount))

	logger.InfoContext(ctx, "Node executed",
		"node", name,
		"sequence", sequence,
		"next", next,
		"fields", update.Fields(),
		"duration", duration,
	)

	return StepEvent{
		RunID:    state.RunID,
		Node:     name,
		Sequence: sequence,
		Next:     next,
		Update:   update,
		State:    state.Clone(),
		Duration: duration,
	}, nil
}
