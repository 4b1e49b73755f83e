package file

import (
	"context"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

func (fp *Persistence) SaveCredentials(_ context.Context, userID string, creds models.Credentials) error {
	if err := validateUserID(userID); err != nil {
		return persistence.NewUserError("SaveCredentials", userID, err)
	}

	creds.PersonURN = models.PersonURN(creds.PersonURN)
	creds.UpdatedAt = time.Now().UTC()

	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := writeJSON(fp.userPath(userID, credentialsFile), creds)
	if err != nil {
		return persistence.NewUserError("SaveCredentials", userID, err)
	}

	return nil
}

func (fp *Persistence) Credentials(_ context.Context, userID string) (*models.Credentials, error) {
	if err := validateUserID(userID); err != nil {
		return nil, persistence.NewUserError("Credentials", userID, err)
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var creds models.Credentials

	found, err := readJSON(fp.userPath(userID, credentialsFile), &creds)
	if err != nil {
		return nil, persistence.NewUserError("Credentials", userID, err)
	}

	if !found {
		return nil, persistence.NewUserError("Credentials", userID, persistence.ErrCredentialsNotFound)
	}

	return &creds, nil
}

func (fp *Persistence) JobSummary(_ context.Context, userID string) (*models.JobSummary, error) {
	if err := validateUserID(userID); err != nil {
		return nil, persistence.NewUserError("JobSummary", userID, err)
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	summary := &models.JobSummary{}

	_, err := readJSON(fp.userPath(userID, summaryFile), summary)
	if err != nil {
		return nil, persistence.NewUserError("JobSummary", userID, err)
	}

	return summary, nil
}

func (fp *Persistence) IncrementJobSummary(_ context.Context, userID string, field models.SummaryField) error {
	if err := validateUserID(userID); err != nil {
		return persistence.NewUserError("IncrementJobSummary", userID, err)
	}

	if !field.Valid() {
		return persistence.NewUserError("IncrementJobSummary", userID, persistence.ErrInvalidSummaryField)
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	path := fp.userPath(userID, summaryFile)
	summary := &models.JobSummary{}

	_, err := readJSON(path, summary)
	if err != nil {
		return persistence.NewUserError("IncrementJobSummary", userID, err)
	}

	switch field {
	case models.SummaryTotalCompleted:
		summary.TotalCompleted++
	case models.SummaryTotalFailed:
		summary.TotalFailed++
	}

	err = writeJSON(path, summary)
	if err != nil {
		return persistence.NewUserError("IncrementJobSummary", userID, err)
	}

	return nil
}
