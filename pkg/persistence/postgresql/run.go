package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

func (r *RunRepository) Save(ctx context.Context, run *models.Run) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return persistence.NewUserError("SaveRun", run.UserID, fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		INSERT INTO workflow_runs (
			id, user_id, niche, status, topic, final_post, iteration_count,
			image_asset_urn, outcome, steps, error, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
		  , topic = EXCLUDED.topic
		  , final_post = EXCLUDED.final_post
		  , iteration_count = EXCLUDED.iteration_count
		  , image_asset_urn = EXCLUDED.image_asset_urn
		  , outcome = EXCLUDED.outcome
		  , steps = EXCLUDED.steps
		  , error = EXCLUDED.error
		  , completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.UserID, run.Niche, string(run.Status), run.Topic, run.FinalPost, run.IterationCount,
		run.ImageAssetURN, run.Outcome, string(steps), run.Error, run.CreatedAt, run.CompletedAt,
	)
	if err != nil {
		return persistence.NewUserError("SaveRun", run.UserID, err)
	}

	return nil
}

func (r *RunRepository) ByUser(ctx context.Context, userID string, limit int) ([]*models.Run, error) {
	query := `
		SELECT
			id
		  , user_id
		  , niche
		  , status
		  , topic
		  , final_post
		  , iteration_count
		  , image_asset_urn
		  , outcome
		  , steps
		  , error
		  , created_at
		  , completed_at
		FROM workflow_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, persistence.NormalizeLimit(limit))
	if err != nil {
		return nil, persistence.NewUserError("Runs", userID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.Run, 0)

	for rows.Next() {
		var (
			run         models.Run
			status      string
			steps       []byte
			completedAt sql.NullTime
		)

		err := rows.Scan(&run.ID, &run.UserID, &run.Niche, &status, &run.Topic, &run.FinalPost,
			&run.IterationCount, &run.ImageAssetURN, &run.Outcome, &steps, &run.Error, &run.CreatedAt, &completedAt)
		if err != nil {
			return nil, persistence.NewUserError("Runs", userID, fmt.Errorf("failed to scan run: %w", err))
		}

		run.Status = models.RunStatus(status)

		err = json.Unmarshal(steps, &run.Steps)
		if err != nil {
			return nil, persistence.NewUserError("Runs", userID, fmt.Errorf("failed to unmarshal steps: %w", err))
		}

		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}

		runs = append(runs, &run)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewUserError("Runs", userID, err)
	}

	return runs, nil
}
