// Package events defines the notifications emitted while a post generation run progresses.
package events

import (
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every run event.
const Topic = "postsync.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	StepCompletedEvent EventType = "run.step.completed"
	RunFinishedEvent   EventType = "run.finished"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	UserID    string    `json:"user_id"`
}

func newBase(eventType EventType, runID, userID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		UserID:    userID,
	}
}

type RunStarted struct {
	BaseEvent

	Niche         string `json:"niche"`
	MaxIterations int    `json:"max_iterations"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

func NewRunStarted(state *models.WorkflowState) RunStarted {
	return RunStarted{
		BaseEvent:     newBase(RunStartedEvent, state.RunID, state.UserID),
		Niche:         state.Niche,
		MaxIterations: state.MaxIterations,
	}
}

// StepCompleted reports one node execution. It never carries credentials.
type StepCompleted struct {
	BaseEvent

	Node           string        `json:"node"`
	Sequence       int           `json:"sequence"`
	Next           string        `json:"next"`
	Fields         []string      `json:"fields"`
	IterationCount int           `json:"iteration_count"`
	IsApproved     bool          `json:"is_approved"`
	Duration       time.Duration `json:"duration"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type RunFinished struct {
	BaseEvent

	Status         models.RunStatus `json:"status"`
	Outcome        string           `json:"outcome"`
	Error          string           `json:"error,omitempty"`
	IterationCount int              `json:"iteration_count"`
	HasImage       bool             `json:"has_image"`
	Duration       time.Duration    `json:"duration"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

func NewRunFinished(run *models.Run, duration time.Duration) RunFinished {
	return RunFinished{
		BaseEvent:      newBase(RunFinishedEvent, run.ID, run.UserID),
		Status:         run.Status,
		Outcome:        run.Outcome,
		Error:          run.Error,
		IterationCount: run.IterationCount,
		HasImage:       run.ImageAssetURN != "",
		Duration:       duration,
	}
}

// NewStepCompleted reports node finishing step sequence of the run in state.
func NewStepCompleted(state *models.WorkflowState, node string, sequence int, next string, fields []string, duration time.Duration) StepCompleted {
	return StepCompleted{
		BaseEvent:      newBase(StepCompletedEvent, state.RunID, state.UserID),
		Node:           node,
		Sequence:       sequence,
		Next:           next,
		Fields:         fields,
		IterationCount: state.IterationCount,
		IsApproved:     state.IsApproved,
		Duration:       duration,
	}
}
