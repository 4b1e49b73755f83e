package models

import "time"

// RunStatus is the terminal status of a workflow run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the persisted history entry of one workflow execution.
type Run struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Niche          string     `json:"niche"`
	Status         RunStatus  `json:"status"`
	Topic          string     `json:"topic,omitempty"`
	FinalPost      string     `json:"final_post,omitempty"`
	IterationCount int        `json:"iteration_count"`
	ImageAssetURN  string     `json:"image_asset_urn,omitempty"`
	Outcome        string     `json:"outcome,omitempty"`
	Steps          []string   `json:"steps"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewRunFromState builds the history entry of a finished run.
func NewRunFromState(state *WorkflowState, steps []string, startedAt time.Time, runErr error) *Run {
	completedAt := time.Now().UTC()

	run := &Run{
		ID:             state.RunID,
		UserID:         state.UserID,
		Niche:          state.Niche,
		Status:         RunStatusCompleted,
		Topic:          state.Topic,
		FinalPost:      state.FinalPost,
		IterationCount: state.IterationCount,
		ImageAssetURN:  state.ImageAssetURN,
		Outcome:        state.Outcome(),
		Steps:          steps,
		CreatedAt:      startedAt.UTC(),
		CompletedAt:    &completedAt,
	}

	if runErr != nil || !state.Succeeded() {
		run.Status = RunStatusFailed
	}

	if runErr != nil {
		run.Error = runErr.Error()
	}

	return run
}
