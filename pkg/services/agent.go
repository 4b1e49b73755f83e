package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/credentials"
	"github.com/dukex/postsync/pkg/eventbus"
	"github.com/dukex/postsync/pkg/events"
	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/dukex/postsync/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AgentStore is the storage the agent records finished runs into.
type AgentStore interface {
	persistence.SummaryStore
	persistence.RunStore
}

// StartRequest asks for one post generation run.
type StartRequest struct {
	Niche  string `json:"niche" validate:"required,max=200"`
	UserID string `json:"-"     validate:"required"`
}

// RunResult is the recorded run together with its final state.
type RunResult struct {
	Run   *models.Run           `json:"run"`
	State *models.WorkflowState `json:"final_state"`
}

// Agent starts workflow runs for authenticated users and records their results.
type Agent struct {
	executor      *workflow.Executor
	resolver      protocol.CredentialResolver
	store         AgentStore
	publisher     eventbus.EventPublisher
	logger        *slog.Logger
	validate      *validator.Validate
	maxIterations int
	newRunID      func() string
}

type AgentOption func(*Agent)

// WithEventPublisher emits run events on publisher.
func WithEventPublisher(publisher eventbus.EventPublisher) AgentOption {
	return func(a *Agent) {
		a.publisher = publisher
	}
}

// WithMaxIterations sets the reviewer pass bound copied into every run.
func WithMaxIterations(maxIterations int) AgentOption {
	return func(a *Agent) {
		if maxIterations > 0 {
			a.maxIterations = maxIterations
		}
	}
}

func NewAgent(executor *workflow.Executor, resolver protocol.CredentialResolver, store AgentStore, logger *slog.Logger, opts ...AgentOption) *Agent {
	agent := &Agent{
		executor:      executor,
		resolver:      resolver,
		store:         store,
		logger:        logger.With("module", "agent"),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		maxIterations: workflow.DefaultMaxIterations,
		newRunID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Start resolves the user's credentials, runs the post graph to completion and
// records the result. Missing or incomplete credentials return ErrUnauthorized
// before any state is created. A run that fails inside the graph is still
// recorded and returned together with the error.
func (a *Agent) Start(ctx context.Context, req StartRequest) (*RunResult, error) {
	req.Niche = strings.TrimSpace(req.Niche)
	req.UserID = strings.TrimSpace(req.UserID)

	if err := a.validate.Struct(req); err != nil {
		return nil, NewValidationError("start", "invalid_request", err.Error(), ErrInvalidRequest)
	}

	creds, err := a.resolver.Resolve(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) || errors.Is(err, credentials.ErrIncompleteCredentials) {
			a.logger.WarnContext(ctx, "Refusing run without credentials", "user_id", req.UserID, "error", err)

			return nil, &ServiceError{Op: "start", Code: "unauthorized", Err: errors.Join(ErrUnauthorized, err)}
		}

		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	state := models.NewWorkflowState(a.newRunID(), req.Niche, req.UserID, *creds, a.maxIterations)
	logger := a.logger.With("run_id", state.RunID, "user_id", state.UserID)

	logger.InfoContext(ctx, "Starting workflow", "niche", state.Niche, "max_iterations", state.MaxIterations)
	a.publish(ctx, state.RunID, events.NewRunStarted(state))

	started := time.Now()
	steps := make([]string, 0, 8)

	var runErr error

	for event, err := range a.executor.Stream(ctx, state) {
		if err != nil {
			runErr = err

			break
		}

		steps = append(steps, event.Node)
		a.publish(ctx, state.RunID, events.NewStepCompleted(event.State, event.Node, event.Sequence, event.Next, event.Update.Fields(), event.Duration))
	}

	run := a.record(ctx, state, steps, started, runErr)
	result := &RunResult{Run: run, State: state.Clone()}

	if runErr != nil {
		return result, fmt.Errorf("workflow run %s failed: %w", state.RunID, runErr)
	}

	logger.InfoContext(ctx, "Workflow finished", "status", run.Status, "outcome", run.Outcome)

	return result, nil
}

// record persists the run history entry and the job counters. Storage
// failures are logged; the run result stands.
func (a *Agent) record(ctx context.Context, state *models.WorkflowState, steps []string, started time.Time, runErr error) *models.Run {
	run := models.NewRunFromState(state, steps, started, runErr)
	logger := a.logger.With("run_id", run.ID, "user_id", run.UserID)

	field := models.SummaryTotalCompleted
	if run.Status == models.RunStatusFailed {
		field = models.SummaryTotalFailed
	}

	if err := a.store.IncrementJobSummary(ctx, run.UserID, field); err != nil {
		logger.ErrorContext(ctx, "Failed to update job summary", "field", field, "error", err)
	}

	if err := a.store.SaveRun(ctx, run); err != nil {
		logger.ErrorContext(ctx, "Failed to save run", "error", err)
	}

	a.publish(ctx, run.ID, events.NewRunFinished(run, time.Since(started)))

	return run
}

func (a *Agent) publish(ctx context.Context, key string, event eventbus.Event) {
	if a.publisher == nil {
		return
	}

	if err := a.publisher.Publish(ctx, key, event); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
