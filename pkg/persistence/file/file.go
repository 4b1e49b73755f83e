// Package file provides a JSON file persistence implementation, one directory per user.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

const (
	usersDir        = "users"
	postsFile       = "posts.json"
	credentialsFile = "credentials.json"
	summaryFile     = "summary.json"
	runsDir         = "runs"
)

var _ persistence.Persistence = (*Persistence)(nil)

// Persistence stores each user's data under <root>/users/<user_id>/.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Users(ctx context.Context) ([]*models.UserSummary, error) {
	entries, err := os.ReadDir(filepath.Join(fp.root, usersDir))
	if errors.Is(err, os.ErrNotExist) {
		return []*models.UserSummary{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.UserSummary, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		userID := entry.Name()

		count, err := fp.TotalPosts(ctx, userID)
		if err != nil {
			return nil, err
		}

		fp.mu.RLock()
		_, statErr := os.Stat(fp.userPath(userID, summaryFile))
		fp.mu.RUnlock()

		users = append(users, &models.UserSummary{
			UserID:     userID,
			PostCount:  count,
			HasSummary: statErr == nil,
		})
	}

	return users, nil
}

func validateUserID(userID string) error {
	if userID == "" {
		return persistence.ErrMissingUserID
	}

	if strings.Contains(userID, "..") || strings.ContainsAny(userID, `/\`) {
		return errors.New("user ID contains invalid characters")
	}

	return nil
}

func (fp *Persistence) userPath(userID string, elem ...string) string {
	return filepath.Join(append([]string{fp.root, usersDir, userID}, elem...)...)
}

// readJSON decodes path into v. It reports false when the file does not exist.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return true, nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"

	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	return nil
}
