// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/dukex/postsync/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

var _ persistence.Persistence = (*Persistence)(nil)

type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	postRepo       *PostRepository
	credentialRepo *CredentialRepository
	summaryRepo    *SummaryRepository
	runRepo        *RunRepository
}

// NewPersistence connects to databaseURL and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		postRepo:       NewPostRepository(database, logger),
		credentialRepo: NewCredentialRepository(database),
		summaryRepo:    NewSummaryRepository(database),
		runRepo:        NewRunRepository(database, logger),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) SavePost(ctx context.Context, userID string, post *models.Post) (string, error) {
	return p.postRepo.Save(ctx, userID, post)
}

func (p *Persistence) TotalPosts(ctx context.Context, userID string) (int64, error) {
	return p.postRepo.Count(ctx, userID)
}

func (p *Persistence) RecentPosts(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	return p.postRepo.Recent(ctx, userID, limit)
}

func (p *Persistence) PostsByPlatform(ctx context.Context, userID, platform string) ([]*models.Post, error) {
	return p.postRepo.ByPlatform(ctx, userID, platform)
}

func (p *Persistence) PostStats(ctx context.Context, userID string) (*models.PostStats, error) {
	return p.postRepo.Stats(ctx, userID)
}

func (p *Persistence) SaveCredentials(ctx context.Context, userID string, creds models.Credentials) error {
	return p.credentialRepo.Save(ctx, userID, creds)
}

func (p *Persistence) Credentials(ctx context.Context, userID string) (*models.Credentials, error) {
	return p.credentialRepo.Get(ctx, userID)
}

func (p *Persistence) JobSummary(ctx context.Context, userID string) (*models.JobSummary, error) {
	return p.summaryRepo.Get(ctx, userID)
}

func (p *Persistence) IncrementJobSummary(ctx context.Context, userID string, field models.SummaryField) error {
	return p.summaryRepo.Increment(ctx, userID, field)
}

func (p *Persistence) SaveRun(ctx context.Context, run *models.Run) error {
	return p.runRepo.Save(ctx, run)
}

func (p *Persistence) Runs(ctx context.Context, userID string, limit int) ([]*models.Run, error) {
	return p.runRepo.ByUser(ctx, userID, limit)
}

// Users lists every user id found in any user scoped table.
func (p *Persistence) Users(ctx context.Context) ([]*models.UserSummary, error) {
	query := `
		SELECT
			u.user_id
		  , COALESCE(pc.post_count, 0)
		  , (s.user_id IS NOT NULL)
		FROM (
			SELECT user_id FROM posts
			UNION
			SELECT user_id FROM user_credentials
			UNION
			SELECT user_id FROM job_summaries
		) u
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS post_count FROM posts GROUP BY user_id
		) pc ON pc.user_id = u.user_id
		LEFT JOIN job_summaries s ON s.user_id = u.user_id
		ORDER BY u.user_id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	users := make([]*models.UserSummary, 0)

	for rows.Next() {
		user := &models.UserSummary{}

		err := rows.Scan(&user.UserID, &user.PostCount, &user.HasSummary)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
