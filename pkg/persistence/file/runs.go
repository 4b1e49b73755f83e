package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

func (fp *Persistence) SaveRun(_ context.Context, run *models.Run) error {
	if err := validateUserID(run.UserID); err != nil {
		return persistence.NewUserError("SaveRun", run.UserID, err)
	}

	if run.ID == "" || filepath.Base(run.ID) != run.ID {
		return persistence.NewUserError("SaveRun", run.UserID, fmt.Errorf("invalid run id %q", run.ID))
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := writeJSON(fp.userPath(run.UserID, runsDir, run.ID+".json"), run)
	if err != nil {
		return persistence.NewUserError("SaveRun", run.UserID, err)
	}

	return nil
}

// Runs returns the latest runs of userID, newest first.
func (fp *Persistence) Runs(_ context.Context, userID string, limit int) ([]*models.Run, error) {
	if err := validateUserID(userID); err != nil {
		return nil, persistence.NewUserError("Runs", userID, err)
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	dir := fp.userPath(userID, runsDir)

	files, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewUserError("Runs", userID, err)
	}

	runs := make([]*models.Run, 0, len(files))

	for _, name := range files {
		run := &models.Run{}

		found, err := readJSON(filepath.Join(dir, name), run)
		if err != nil {
			return nil, persistence.NewUserError("Runs", userID, err)
		}

		if found {
			runs = append(runs, run)
		}
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	limit = persistence.NormalizeLimit(limit)
	if len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
