// Package persistence provides the storage abstraction for posts, credentials,
// job summaries and run history.
package persistence

import (
	"context"

	"github.com/dukex/postsync/pkg/models"
)

// DefaultRecentLimit is the page size used when a caller asks for recent items without a limit.
const DefaultRecentLimit = 10

type Persistence interface {
	PostStore
	CredentialStore
	SummaryStore
	RunStore

	// Users lists every user that owns posts, credentials or a job summary.
	Users(ctx context.Context) ([]*models.UserSummary, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// PostStore keeps the published posts of each user.
type PostStore interface {
	// SavePost stores post for userID and returns its generated id.
	SavePost(ctx context.Context, userID string, post *models.Post) (string, error)
	TotalPosts(ctx context.Context, userID string) (int64, error)
	// RecentPosts returns at most limit posts, newest first.
	RecentPosts(ctx context.Context, userID string, limit int) ([]*models.Post, error)
	PostsByPlatform(ctx context.Context, userID, platform string) ([]*models.Post, error)
	PostStats(ctx context.Context, userID string) (*models.PostStats, error)
}

type CredentialStore interface {
	SaveCredentials(ctx context.Context, userID string, creds models.Credentials) error
	// Credentials returns ErrCredentialsNotFound when userID has none stored.
	Credentials(ctx context.Context, userID string) (*models.Credentials, error)
}

type SummaryStore interface {
	// JobSummary returns zero counters for a user without a summary.
	JobSummary(ctx context.Context, userID string) (*models.JobSummary, error)
	IncrementJobSummary(ctx context.Context, userID string, field models.SummaryField) error
}

type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
	Runs(ctx context.Context, userID string, limit int) ([]*models.Run, error)
}

// NormalizeLimit clamps limit to a positive value.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}

	return limit
}
