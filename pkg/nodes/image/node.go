// Package image provides the node that illustrates an approved post.
package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/otelhelper"
	"github.com/dukex/postsync/pkg/protocol"
)

const ID = "image_generation"

var (
	ErrEmptyImage        = errors.New("image generator returned no data")
	ErrUnexpectedAssetID = errors.New("upload returned an unexpected asset handle")
)

var assetPrefixes = []string{"urn:li:digitalmediaAsset:", "urn:li:asset:"}

// Node generates an image for final_post, uploads it and records the asset
// URN. Every failure degrades to a text-only post.
type Node struct {
	generator protocol.ImageGenerator
	uploader  protocol.MediaUploader
	logger    *slog.Logger
	tempDir   string
}

type Option func(*Node)

// WithTempDir sets where image files are staged before upload. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(n *Node) {
		n.tempDir = dir
	}
}

func NewNode(generator protocol.ImageGenerator, uploader protocol.MediaUploader, logger *slog.Logger, opts ...Option) *Node {
	node := &Node{
		generator: generator,
		uploader:  uploader,
		logger:    logger.With("module", "image_node"),
	}

	for _, opt := range opts {
		opt(node)
	}

	return node
}

func (n *Node) ID() string {
	return ID
}

func (n *Node) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	textOnly := models.StateUpdate{ImageAssetURN: models.Ptr("")}

	if state.FinalPost == "" {
		n.logger.WarnContext(ctx, "No final post, skipping image", "run_id", state.RunID)

		return textOnly, nil
	}

	if !state.Credentials().Complete() {
		n.logger.WarnContext(ctx, "Missing credentials, skipping image", "run_id", state.RunID)

		return textOnly, nil
	}

	urn, err := n.illustrate(ctx, state)
	if err != nil {
		n.logger.WarnContext(ctx, "Image step failed, publishing text only", "run_id", state.RunID, "error", err)
		otelhelper.RecordFallback(ctx, err.Error())

		return textOnly, nil
	}

	n.logger.InfoContext(ctx, "Image uploaded", "run_id", state.RunID, "asset", urn)

	return models.StateUpdate{ImageAssetURN: &urn}, nil
}

func (n *Node) illustrate(ctx context.Context, state models.WorkflowState) (string, error) {
	data, err := n.generator.GenerateImage(ctx, state.FinalPost)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	path, err := n.stage(state.RunID, data)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			n.logger.WarnContext(ctx, "Failed to remove staged image", "path", path, "error", err)
		}
	}()

	urn, err := n.uploader.UploadMedia(ctx, path, state.Credentials())
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	if !IsAssetURN(urn) {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedAssetID, urn)
	}

	return urn, nil
}

// stage writes data to a file unique to this run.
func (n *Node) stage(runID string, data []byte) (string, error) {
	file, err := os.CreateTemp(n.tempDir, "postsync-"+runID+"-*.png")
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	path := file.Name()

	_, err = file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return "", fmt.Errorf("write image file: %w", err)
	}

	return path, nil
}

// IsAssetURN reports whether urn is a media asset handle usable in a post.
func IsAssetURN(urn string) bool {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(urn, prefix) && len(urn) > len(prefix) {
			return true
		}
	}

	return false
}
