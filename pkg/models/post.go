package models

import (
	"strings"
	"time"
)

// PlatformLinkedIn is the only publishing platform the workflow targets.
const PlatformLinkedIn = "LinkedIn"

const personURNPrefix = "urn:li:person:"

// Post is the stored record of published (or manually saved) content.
type Post struct {
	ID            string    `json:"id"`
	Platform      string    `json:"platform"                  validate:"required"`
	Content       string    `json:"content"                   validate:"required"`
	Niche         string    `json:"niche,omitempty"`
	PostID        string    `json:"post_id,omitempty"`
	ImageAssetURN string    `json:"image_asset_urn,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// PostStats aggregates a user's posts.
type PostStats struct {
	TotalPosts      int64            `json:"total_posts"`
	PostsByPlatform map[string]int64 `json:"posts_by_platform"`
}

// Credentials are the per-user publishing credentials.
type Credentials struct {
	AccessToken string    `json:"access_token" validate:"required"`
	PersonURN   string    `json:"person_urn"   validate:"required"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Complete reports whether both halves of the credential pair are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.PersonURN != ""
}

// PersonURN returns id as a full person URN, accepting either a bare member id
// or an already prefixed URN.
func PersonURN(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, personURNPrefix) {
		return id
	}

	return personURNPrefix + id
}

// SummaryField names one of the job counters.
type SummaryField string

const (
	SummaryTotalCompleted SummaryField = "total_completed"
	SummaryTotalFailed    SummaryField = "total_failed"
)

// Valid reports whether f is a known counter.
func (f SummaryField) Valid() bool {
	return f == SummaryTotalCompleted || f == SummaryTotalFailed
}

// JobSummary holds the completed/failed run counters of a user.
type JobSummary struct {
	TotalCompleted int64 `json:"total_completed"`
	TotalFailed    int64 `json:"total_failed"`
}

// UserSummary describes one user known to the store.
type UserSummary struct {
	UserID     string `json:"user_id"`
	PostCount  int64  `json:"post_count"`
	HasSummary bool   `json:"has_summary"`
}
