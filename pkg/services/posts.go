package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

const maxIncrement = 100

// CreatePostRequest stores a post that was written outside the workflow.
type CreatePostRequest struct {
	Platform string `json:"platform" validate:"required,max=50"`
	Content  string `json:"content"  validate:"required"`
	Niche    string `json:"niche"`
}

// AgentSummary reports completed runs as the number of stored posts and
// failed runs from the job summary counter.
type AgentSummary struct {
	TotalCompleted int64 `json:"total_completed"`
	TotalFailed    int64 `json:"total_failed"`
}

// Posts serves the stored posts, job summaries, run history and users.
type Posts struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewPosts(persistence persistence.Persistence) *Posts {
	return &Posts{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// HealthCheck checks the health of the persistence layer.
func (p *Posts) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := p.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (p *Posts) Create(ctx context.Context, userID string, req CreatePostRequest) (string, error) {
	req.Platform = strings.TrimSpace(req.Platform)

	if err := p.validate.Struct(req); err != nil {
		return "", NewValidationError("create_post", "invalid_post", err.Error(), ErrInvalidRequest)
	}

	id, err := p.persistence.SavePost(ctx, userID, &models.Post{
		Platform: req.Platform,
		Content:  req.Content,
		Niche:    req.Niche,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidPost) {
			return "", NewValidationError("create_post", "invalid_post", "", ErrInvalidRequest)
		}

		return "", fmt.Errorf("failed to save post: %w", err)
	}

	return id, nil
}

func (p *Posts) Count(ctx context.Context, userID string) (int64, error) {
	count, err := p.persistence.TotalPosts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}

func (p *Posts) Recent(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	posts, err := p.persistence.RecentPosts(ctx, userID, persistence.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent posts: %w", err)
	}

	return posts, nil
}

// ByPlatform returns at most limit posts of platform, newest first.
func (p *Posts) ByPlatform(ctx context.Context, userID, platform string, limit int) ([]*models.Post, error) {
	posts, err := p.persistence.PostsByPlatform(ctx, userID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts by platform: %w", err)
	}

	if limit = persistence.NormalizeLimit(limit); len(posts) > limit {
		posts = posts[:limit]
	}

	return posts, nil
}

func (p *Posts) Stats(ctx context.Context, userID string) (*models.PostStats, error) {
	stats, err := p.persistence.PostStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute post stats: %w", err)
	}

	return stats, nil
}

func (p *Posts) JobSummary(ctx context.Context, userID string) (*models.JobSummary, error) {
	summary, err := p.persistence.JobSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job summary: %w", err)
	}

	return summary, nil
}

// IncrementJobSummary adds increment to the named counter. An increment of 0
// counts as 1.
func (p *Posts) IncrementJobSummary(ctx context.Context, userID, field string, increment int) error {
	summaryField := models.SummaryField(field)
	if !summaryField.Valid() {
		return NewValidationError("update_summary", "invalid_field", "", ErrInvalidSummaryField)
	}

	if increment == 0 {
		increment = 1
	}

	if increment < 0 || increment > maxIncrement {
		return NewValidationError("update_summary", "invalid_increment", "", ErrInvalidIncrement)
	}

	for range increment {
		err := p.persistence.IncrementJobSummary(ctx, userID, summaryField)
		if err != nil {
			if persistence.IsInvalidSummaryField(err) {
				return NewValidationError("update_summary", "invalid_field", "", ErrInvalidSummaryField)
			}

			return fmt.Errorf("failed to update job summary: %w", err)
		}
	}

	return nil
}

func (p *Posts) AgentSummary(ctx context.Context, userID string) (*AgentSummary, error) {
	total, err := p.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := p.JobSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AgentSummary{TotalCompleted: total, TotalFailed: summary.TotalFailed}, nil
}

func (p *Posts) Runs(ctx context.Context, userID string, limit int) ([]*models.Run, error) {
	runs, err := p.persistence.Runs(ctx, userID, persistence.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	return runs, nil
}

func (p *Posts) Users(ctx context.Context) ([]*models.UserSummary, error) {
	users, err := p.persistence.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
