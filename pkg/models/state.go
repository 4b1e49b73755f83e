// Package models defines the data records shared by the post generation workflow.
package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Message roles used in the run outcome log.
const (
	RoleSystem = "system"
)

// Outcome messages written by the post executor.
const (
	OutcomePostSuccess = "post_success"
	OutcomePostFailed  = "post_failed"
)

var (
	// ErrFinalPostImmutable is returned when an update tries to change an already approved post.
	ErrFinalPostImmutable = errors.New("final post is immutable once set")

	// ErrApprovalRevoked is returned when an update tries to flip is_approved back to false.
	ErrApprovalRevoked = errors.New("approval cannot be revoked")

	// ErrIterationRegressed is returned when an update lowers the iteration counter.
	ErrIterationRegressed = errors.New("iteration count cannot decrease")

	// ErrInvalidState is returned by Validate for a state that cannot start a run.
	ErrInvalidState = errors.New("invalid workflow state")
)

var stateValidator = validator.New(validator.WithRequiredStructEnabled())

// Message is one entry of the append-only outcome log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WorkflowState is the record threaded through every node of a run.
// String fields use "" for "absent".
type WorkflowState struct {
	RunID         string `json:"run_id"          validate:"required"`
	Niche         string `json:"niche"           validate:"required"`
	UserID        string `json:"user_id"         validate:"required"`
	AccessToken   string `json:"-"`
	PersonURN     string `json:"person_urn"`
	MaxIterations int    `json:"max_iterations"  validate:"min=1"`

	Topic          string    `json:"topic,omitempty"`
	PostDraft      string    `json:"post_draft,omitempty"`
	FinalPost      string    `json:"final_post,omitempty"`
	IsApproved     bool      `json:"is_approved"`
	IterationCount int       `json:"iteration_count" validate:"min=0"`
	ImageAssetURN  string    `json:"image_asset_urn,omitempty"`
	Messages       []Message `json:"messages"`
}

// NewWorkflowState creates the initial state of a run with every optional field empty.
func NewWorkflowState(runID, niche, userID string, creds Credentials, maxIterations int) *WorkflowState {
	return &WorkflowState{
		RunID:         runID,
		Niche:         niche,
		UserID:        userID,
		AccessToken:   creds.AccessToken,
		PersonURN:     creds.PersonURN,
		MaxIterations: maxIterations,
		Messages:      []Message{},
	}
}

// Validate checks the run identity and the iteration bounds. Credentials are
// not checked here: missing credentials surface as a post_failed outcome at
// the post executor.
func (s *WorkflowState) Validate() error {
	if err := stateValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	return nil
}

// Credentials returns the publishing credentials carried by the run.
func (s *WorkflowState) Credentials() Credentials {
	return Credentials{AccessToken: s.AccessToken, PersonURN: s.PersonURN}
}

// Apply overlays update onto the state. Fields the update leaves nil are untouched.
// It refuses updates that would break the monotonic fields of a run.
func (s *WorkflowState) Apply(update StateUpdate) error {
	if update.FinalPost != nil && s.FinalPost != "" && *update.FinalPost != s.FinalPost {
		return ErrFinalPostImmutable
	}

	if update.IsApproved != nil && s.IsApproved && !*update.IsApproved {
		return ErrApprovalRevoked
	}

	if update.IterationCount != nil && *update.IterationCount < s.IterationCount {
		return fmt.Errorf("%w: %d -> %d", ErrIterationRegressed, s.IterationCount, *update.IterationCount)
	}

	if update.Topic != nil {
		s.Topic = *update.Topic
	}

	if update.PostDraft != nil {
		s.PostDraft = *update.PostDraft
	}

	if update.FinalPost != nil {
		s.FinalPost = *update.FinalPost
	}

	if update.IsApproved != nil {
		s.IsApproved = *update.IsApproved
	}

	if update.IterationCount != nil {
		s.IterationCount = *update.IterationCount
	}

	if update.ImageAssetURN != nil {
		s.ImageAssetURN = *update.ImageAssetURN
	}

	s.Messages = append(s.Messages, update.Messages...)

	return nil
}

// Clone returns a deep copy, safe to hand to observers while the run continues.
func (s *WorkflowState) Clone() *WorkflowState {
	clone := *s
	clone.Messages = slices.Clone(s.Messages)

	return &clone
}

// Outcome returns the last outcome message, or "" when the run has not published yet.
func (s *WorkflowState) Outcome() string {
	if len(s.Messages) == 0 {
		return ""
	}

	return s.Messages[len(s.Messages)-1].Content
}

// Succeeded reports whether the terminal outcome is post_success.
func (s *WorkflowState) Succeeded() bool {
	return s.Outcome() == OutcomePostSuccess
}

// FailureMessage formats a post_failed outcome with its reason.
func FailureMessage(reason string) Message {
	return Message{Role: RoleSystem, Content: OutcomePostFailed + ": " + strings.TrimSpace(reason)}
}

// SuccessMessage is the post_success outcome.
func SuccessMessage() Message {
	return Message{Role: RoleSystem, Content: OutcomePostSuccess}
}
