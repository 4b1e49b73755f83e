package protocol

import (
	"context"

	"github.com/dukex/postsync/pkg/models"
)

// TextGenerator produces text for a system and user prompt pair.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageGenerator produces raw image bytes for a prompt. Empty bytes with a nil
// error mean the provider returned no image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// MediaUploader uploads a local file and returns the asset handle to reference
// it from a post.
type MediaUploader interface {
	UploadMedia(ctx context.Context, filePath string, creds models.Credentials) (string, error)
}

// PublishRequest is the content of one post publication.
type PublishRequest struct {
	Text          string
	Credentials   models.Credentials
	ImageAssetURN string
}

// PublishResult is the structured answer of a publication. A non-empty Error
// marks a failure reported by the provider.
type PublishResult struct {
	PostID string
	Error  string
}

// Publisher publishes a post.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}

// PostStore persists published posts per user.
type PostStore interface {
	SavePost(ctx context.Context, userID string, post *models.Post) (string, error)
}

// CredentialResolver looks up the publishing credentials of a user.
type CredentialResolver interface {
	Resolve(ctx context.Context, userID string) (*models.Credentials, error)
}
