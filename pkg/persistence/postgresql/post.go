package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/google/uuid"
)

const postColumns = `
			id
		  , platform
		  , content
		  , niche
		  , post_id
		  , image_asset_urn
		  , created_at`

// PostRepository handles post-related database operations.
type PostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostRepository(db *sql.DB, logger *slog.Logger) *PostRepository {
	return &PostRepository{db: db, logger: logger}
}

func (r *PostRepository) Save(ctx context.Context, userID string, post *models.Post) (string, error) {
	if userID == "" {
		return "", persistence.NewUserError("SavePost", userID, persistence.ErrMissingUserID)
	}

	if post == nil || post.Platform == "" || post.Content == "" {
		return "", persistence.NewUserError("SavePost", userID, persistence.ErrInvalidPost)
	}

	id := post.ID
	if id == "" {
		id = uuid.NewString()
	}

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO posts (id, user_id, platform, content, niche, post_id, image_asset_urn, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		id, userID, post.Platform, post.Content, post.Niche, post.PostID, post.ImageAssetURN, createdAt)
	if err != nil {
		return "", persistence.NewUserError("SavePost", userID, err)
	}

	return id, nil
}

func (r *PostRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, persistence.NewUserError("TotalPosts", userID, err)
	}

	return count, nil
}

func (r *PostRepository) Recent(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	query := `SELECT` + postColumns + `
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.query(ctx, "RecentPosts", userID, query, userID, persistence.NormalizeLimit(limit))
}

func (r *PostRepository) ByPlatform(ctx context.Context, userID, platform string) ([]*models.Post, error) {
	query := `SELECT` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND platform = $2
		ORDER BY created_at DESC
	`

	return r.query(ctx, "PostsByPlatform", userID, query, userID, platform)
}

func (r *PostRepository) Stats(ctx context.Context, userID string) (*models.PostStats, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT platform, COUNT(*) FROM posts WHERE user_id = $1 GROUP BY platform", userID)
	if err != nil {
		return nil, persistence.NewUserError("PostStats", userID, err)
	}

	defer r.closeRows(ctx, rows)

	stats := &models.PostStats{PostsByPlatform: make(map[string]int64)}

	for rows.Next() {
		var (
			platform string
			count    int64
		)

		err := rows.Scan(&platform, &count)
		if err != nil {
			return nil, persistence.NewUserError("PostStats", userID, err)
		}

		stats.PostsByPlatform[platform] = count
		stats.TotalPosts += count
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewUserError("PostStats", userID, err)
	}

	return stats, nil
}

func (r *PostRepository) query(ctx context.Context, op, userID, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewUserError(op, userID, fmt.Errorf("failed to query posts: %w", err))
	}

	defer r.closeRows(ctx, rows)

	posts := make([]*models.Post, 0)

	for rows.Next() {
		post := &models.Post{}

		err := rows.Scan(&post.ID, &post.Platform, &post.Content, &post.Niche, &post.PostID, &post.ImageAssetURN, &post.CreatedAt)
		if err != nil {
			return nil, persistence.NewUserError(op, userID, fmt.Errorf("failed to scan post: %w", err))
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewUserError(op, userID, err)
	}

	return posts, nil
}

func (r *PostRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
