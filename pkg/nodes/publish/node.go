// Package publish provides the terminal node that publishes the approved post
// and stores it.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/protocol"
)

const ID = "post_executor"

var ErrNoResult = errors.New("publisher returned no result")

// Node publishes final_post and records the outcome as a message. It never
// returns an error: every failure becomes a post_failed message.
type Node struct {
	publisher protocol.Publisher
	store     protocol.PostStore
	logger    *slog.Logger
	now       func() time.Time
}

func NewNode(publisher protocol.Publisher, store protocol.PostStore, logger *slog.Logger) *Node {
	return &Node{
		publisher: publisher,
		store:     store,
		logger:    logger.With("module", "publish_node"),
		now:       time.Now,
	}
}

func (n *Node) ID() string {
	return ID
}

func (n *Node) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	logger := n.logger.With("run_id", state.RunID, "user_id", state.UserID)

	if missing := MissingFields(state); len(missing) > 0 {
		reason := "missing required fields: " + strings.Join(missing, ", ")
		logger.WarnContext(ctx, "Cannot publish", "reason", reason)

		return failed(reason), nil
	}

	result, err := n.publisher.Publish(ctx, protocol.PublishRequest{
		Text:          state.FinalPost,
		Credentials:   state.Credentials(),
		ImageAssetURN: state.ImageAssetURN,
	})

	switch {
	case err != nil:
	case result == nil:
		err = ErrNoResult
	case result.Error != "":
		err = errors.New(result.Error)
	}

	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish post", "error", err)

		return failed(fmt.Sprintf("publish: %v", err)), nil
	}

	post := &models.Post{
		Platform:      models.PlatformLinkedIn,
		Content:       state.FinalPost,
		Niche:         state.Niche,
		PostID:        result.PostID,
		ImageAssetURN: state.ImageAssetURN,
		CreatedAt:     n.now().UTC(),
	}

	id, err := n.store.SavePost(ctx, state.UserID, post)
	if err != nil {
		logger.ErrorContext(ctx, "Post published but not stored", "post_id", result.PostID, "error", err)
	} else {
		logger.InfoContext(ctx, "Post published", "post_id", result.PostID, "stored_id", id)
	}

	return models.StateUpdate{Messages: []models.Message{models.SuccessMessage()}}, nil
}

// MissingFields lists the absent inputs required to publish, in a fixed order.
func MissingFields(state models.WorkflowState) []string {
	required := []struct {
		name  string
		value string
	}{
		{"final_post", state.FinalPost},
		{"access_token", state.AccessToken},
		{"person_urn", state.PersonURN},
		{"user_id", state.UserID},
		{"niche", state.Niche},
	}

	var missing []string

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}

	return missing
}

func failed(reason string) models.StateUpdate {
	return models.StateUpdate{Messages: []models.Message{models.FailureMessage(reason)}}
}
