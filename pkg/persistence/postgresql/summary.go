package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) Get(ctx context.Context, userID string) (*models.JobSummary, error) {
	summary := &models.JobSummary{}

	err := r.db.QueryRowContext(ctx,
		"SELECT total_completed, total_failed FROM job_summaries WHERE user_id = $1", userID,
	).Scan(&summary.TotalCompleted, &summary.TotalFailed)
	if errors.Is(err, sql.ErrNoRows) {
		return summary, nil
	}

	if err != nil {
		return nil, persistence.NewUserError("JobSummary", userID, err)
	}

	return summary, nil
}

// Increment adds one to field, creating the summary row on first use.
func (r *SummaryRepository) Increment(ctx context.Context, userID string, field models.SummaryField) error {
	var query string

	switch field {
	case models.SummaryTotalCompleted:
		query = `
			INSERT INTO job_summaries (user_id, total_completed) VALUES ($1, 1)
			ON CONFLICT (user_id) DO UPDATE SET
				total_completed = job_summaries.total_completed + 1
			  , updated_at = NOW()
		`
	case models.SummaryTotalFailed:
		query = `
			INSERT INTO job_summaries (user_id, total_failed) VALUES ($1, 1)
			ON CONFLICT (user_id) DO UPDATE SET
				total_failed = job_summaries.total_failed + 1
			  , updated_at = NOW()
		`
	default:
		return persistence.NewUserError("IncrementJobSummary", userID, persistence.ErrInvalidSummaryField)
	}

	if userID == "" {
		return persistence.NewUserError("IncrementJobSummary", userID, persistence.ErrMissingUserID)
	}

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return persistence.NewUserError("IncrementJobSummary", userID, err)
	}

	return nil
}
