// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/postsync/pkg/models"
	"github.com/google/uuid"
)

// Default credentials carried by states built with CreateTestState.
const (
	TestAccessToken = "tok"
	TestPersonURN   = "urn:li:person:abc"
)

// CreateTestState creates a fresh run for user u1 in the devops niche with
// one reviewer pass. Overrides are applied in order.
func CreateTestState(overrides ...func(*models.WorkflowState)) *models.WorkflowState {
	state := models.NewWorkflowState(uuid.New().String(), "devops", "u1",
		models.Credentials{AccessToken: TestAccessToken, PersonURN: TestPersonURN}, 1)

	for _, override := range overrides {
		override(state)
	}

	return state
}

// WithRunID sets the run id.
func WithRunID(runID string) func(*models.WorkflowState) {
	return func(s *models.WorkflowState) {
		s.RunID = runID
	}
}

// WithMaxIterations sets the reviewer pass bound.
func WithMaxIterations(maxIterations int) func(*models.WorkflowState) {
	return func(s *models.WorkflowState) {
		s.MaxIterations = maxIterations
	}
}

// WithDraft sets the draft awaiting review.
func WithDraft(draft string) func(*models.WorkflowState) {
	return func(s *models.WorkflowState) {
		s.PostDraft = draft
	}
}

// WithApprovedPost marks the state approved with post as the final text.
func WithApprovedPost(post string) func(*models.WorkflowState) {
	return func(s *models.WorkflowState) {
		s.FinalPost = post
		s.IsApproved = true
		s.IterationCount++
	}
}

// WithImageAsset sets the uploaded image asset URN.
func WithImageAsset(urn string) func(*models.WorkflowState) {
	return func(s *models.WorkflowState) {
		s.ImageAssetURN = urn
	}
}
