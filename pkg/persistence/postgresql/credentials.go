package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Save(ctx context.Context, userID string, creds models.Credentials) error {
	if userID == "" {
		return persistence.NewUserError("SaveCredentials", userID, persistence.ErrMissingUserID)
	}

	query := `
		INSERT INTO user_credentials (user_id, access_token, person_urn, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token
		  , person_urn = EXCLUDED.person_urn
		  , updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, userID, creds.AccessToken, models.PersonURN(creds.PersonURN), time.Now().UTC())
	if err != nil {
		return persistence.NewUserError("SaveCredentials", userID, err)
	}

	return nil
}

func (r *CredentialRepository) Get(ctx context.Context, userID string) (*models.Credentials, error) {
	creds := &models.Credentials{}

	err := r.db.QueryRowContext(ctx,
		"SELECT access_token, person_urn, updated_at FROM user_credentials WHERE user_id = $1", userID,
	).Scan(&creds.AccessToken, &creds.PersonURN, &creds.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewUserError("Credentials", userID, persistence.ErrCredentialsNotFound)
	}

	if err != nil {
		return nil, persistence.NewUserError("Credentials", userID, err)
	}

	return creds, nil
}
