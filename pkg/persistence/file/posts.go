package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/google/uuid"
)

func (fp *Persistence) SavePost(_ context.Context, userID string, post *models.Post) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", persistence.NewUserError("SavePost", userID, err)
	}

	if post == nil || post.Platform == "" || post.Content == "" {
		return "", persistence.NewUserError("SavePost", userID, persistence.ErrInvalidPost)
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	posts, err := fp.loadPosts(userID)
	if err != nil {
		return "", persistence.NewUserError("SavePost", userID, err)
	}

	stored := *post
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	posts = append(posts, &stored)

	err = writeJSON(fp.userPath(userID, postsFile), posts)
	if err != nil {
		return "", persistence.NewUserError("SavePost", userID, err)
	}

	return stored.ID, nil
}

func (fp *Persistence) TotalPosts(_ context.Context, userID string) (int64, error) {
	posts, err := fp.posts(userID)
	if err != nil {
		return 0, persistence.NewUserError("TotalPosts", userID, err)
	}

	return int64(len(posts)), nil
}

func (fp *Persistence) RecentPosts(_ context.Context, userID string, limit int) ([]*models.Post, error) {
	posts, err := fp.posts(userID)
	if err != nil {
		return nil, persistence.NewUserError("RecentPosts", userID, err)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	limit = persistence.NormalizeLimit(limit)
	if len(posts) > limit {
		posts = posts[:limit]
	}

	return posts, nil
}

func (fp *Persistence) PostsByPlatform(_ context.Context, userID, platform string) ([]*models.Post, error) {
	posts, err := fp.posts(userID)
	if err != nil {
		return nil, persistence.NewUserError("PostsByPlatform", userID, err)
	}

	filtered := make([]*models.Post, 0, len(posts))

	for _, post := range posts {
		if post.Platform == platform {
			filtered = append(filtered, post)
		}
	}

	return filtered, nil
}

func (fp *Persistence) PostStats(_ context.Context, userID string) (*models.PostStats, error) {
	posts, err := fp.posts(userID)
	if err != nil {
		return nil, persistence.NewUserError("PostStats", userID, err)
	}

	stats := &models.PostStats{
		TotalPosts:      int64(len(posts)),
		PostsByPlatform: make(map[string]int64),
	}

	for _, post := range posts {
		stats.PostsByPlatform[post.Platform]++
	}

	return stats, nil
}

func (fp *Persistence) posts(userID string) ([]*models.Post, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.loadPosts(userID)
}

func (fp *Persistence) loadPosts(userID string) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)

	_, err := readJSON(fp.userPath(userID, postsFile), &posts)
	if err != nil {
		return nil, err
	}

	return posts, nil
}
