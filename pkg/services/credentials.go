package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/postsync/pkg/models"
	"github.com/go-playground/validator/v10"
)

// CredentialSaver stores credentials and invalidates any cached copy.
type CredentialSaver interface {
	Save(ctx context.Context, userID string, creds models.Credentials) error
}

// SaveCredentialsRequest carries the LinkedIn token pair obtained by the login flow.
type SaveCredentialsRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	PersonURN   string `json:"person_urn"   validate:"required"`
}

type Credentials struct {
	saver    CredentialSaver
	validate *validator.Validate
}

func NewCredentials(saver CredentialSaver) *Credentials {
	return &Credentials{
		saver:    saver,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Save stores the pair for userID with the person URN normalised to its full form.
func (c *Credentials) Save(ctx context.Context, userID string, req SaveCredentialsRequest) error {
	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.PersonURN = strings.TrimSpace(req.PersonURN)

	if err := c.validate.Struct(req); err != nil {
		return NewValidationError("save_credentials", "invalid_credentials", err.Error(), ErrInvalidRequest)
	}

	err := c.saver.Save(ctx, userID, models.Credentials{
		AccessToken: req.AccessToken,
		PersonURN:   models.PersonURN(req.PersonURN),
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}
