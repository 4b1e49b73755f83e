// Package linkedin implements media upload and post publication against the
// LinkedIn v2 REST API.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.linkedin.com"

	registerUploadPath = "/v2/assets"
	ugcPostsPath       = "/v2/ugcPosts"
	restliVersion      = "2.0.0"
	feedshareRecipe    = "urn:li:digitalmediaRecipe:feedshare-image"
	uploadMechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"
	defaultTimeout     = 30 * time.Second
)

var (
	ErrMissingCredentials = errors.New("linkedin: missing access token or person urn")
	ErrIncompleteUpload   = errors.New("linkedin: register upload returned no upload url or asset")
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client talks to LinkedIn on behalf of the user whose credentials are passed
// to each call. It is safe for concurrent use.
type Client struct {
	http *resty.Client
	// publisher sends ugcPosts creations and never retries: a request that
	// timed out may already have created a live post.
	publisher *resty.Client
	logger    *slog.Logger
}

func New(config Config, logger *slog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := newHTTPClient(config).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:      httpClient,
		publisher: newHTTPClient(config).SetRetryCount(0),
		logger:    logger.With("module", "linkedin"),
	}
}

func newHTTPClient(config Config) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("X-Restli-Protocol-Version", restliVersion)
}

type registerUploadRequest struct {
	RegisterUploadRequest struct {
		Recipes              []string              `json:"recipes"`
		Owner                string                `json:"owner"`
		ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
	} `json:"registerUploadRequest"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadResponse struct {
	Value struct {
		UploadMechanism map[string]struct {
			UploadURL string            `json:"uploadUrl"`
			Headers   map[string]string `json:"headers"`
		} `json:"uploadMechanism"`
		Asset string `json:"asset"`
	} `json:"value"`
}

// UploadMedia registers an image upload, transfers the file and returns the
// asset URN to reference from a post.
func (c *Client) UploadMedia(ctx context.Context, filePath string, creds models.Credentials) (string, error) {
	if !creds.Complete() {
		return "", ErrMissingCredentials
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}

	uploadURL, asset, err := c.registerUpload(ctx, creds)
	if err != nil {
		return "", err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(creds.AccessToken).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put(uploadURL)
	if err != nil {
		return "", protocol.NewTransientError(fmt.Errorf("upload media: %w", err))
	}

	if resp.IsError() {
		return "", protocol.StatusError("LinkedIn upload", resp.StatusCode(), resp.String())
	}

	c.logger.InfoContext(ctx, "Media uploaded", "asset", asset, "bytes", len(data))

	return asset, nil
}

func (c *Client) registerUpload(ctx context.Context, creds models.Credentials) (string, string, error) {
	var body registerUploadRequest
	body.RegisterUploadRequest.Recipes = []string{feedshareRecipe}
	body.RegisterUploadRequest.Owner = models.PersonURN(creds.PersonURN)
	body.RegisterUploadRequest.ServiceRelationships = []serviceRelationship{{
		RelationshipType: "OWNER",
		Identifier:       "urn:li:userGeneratedContent",
	}}

	var result registerUploadResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(creds.AccessToken).
		SetQueryParam("action", "registerUpload").
		SetBody(body).
		SetResult(&result).
		Post(registerUploadPath)
	if err != nil {
		return "", "", protocol.NewTransientError(fmt.Errorf("register upload: %w", err))
	}

	if resp.IsError() {
		return "", "", protocol.StatusError("LinkedIn registerUpload", resp.StatusCode(), resp.String())
	}

	mechanism := result.Value.UploadMechanism[uploadMechanismKey]
	if mechanism.UploadURL == "" || result.Value.Asset == "" {
		return "", "", protocol.NewFatalError(ErrIncompleteUpload)
	}

	return mechanism.UploadURL, result.Value.Asset, nil
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []shareMedia    `json:"media,omitempty"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type UGCPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

// NewUGCPost builds the ugcPosts payload for text with an optional image asset.
func NewUGCPost(text, personURN, imageAssetURN string) UGCPost {
	share := shareContent{
		ShareCommentary:    shareCommentary{Text: text},
		ShareMediaCategory: "NONE",
	}

	if imageAssetURN != "" {
		share.ShareMediaCategory = "IMAGE"
		share.Media = []shareMedia{{Status: "READY", Media: imageAssetURN}}
	}

	return UGCPost{
		Author:          models.PersonURN(personURN),
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": share},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
}

// Publish creates a public post. Errors reported by LinkedIn come back in
// PublishResult.Error; transport failures are returned as error.
func (c *Client) Publish(ctx context.Context, req protocol.PublishRequest) (*protocol.PublishResult, error) {
	if !req.Credentials.Complete() {
		return &protocol.PublishResult{Error: ErrMissingCredentials.Error()}, nil
	}

	var result struct {
		ID string `json:"id"`
	}

	resp, err := c.publisher.R().
		SetContext(ctx).
		SetAuthToken(req.Credentials.AccessToken).
		SetBody(NewUGCPost(req.Text, req.Credentials.PersonURN, req.ImageAssetURN)).
		SetResult(&result).
		Post(ugcPostsPath)
	if err != nil {
		return nil, protocol.NewTransientError(fmt.Errorf("publish post: %w", err))
	}

	if resp.IsError() {
		return &protocol.PublishResult{
			Error: protocol.StatusError("LinkedIn", resp.StatusCode(), resp.String()).Error(),
		}, nil
	}

	postID := result.ID
	if postID == "" {
		postID = resp.Header().Get("X-RestLi-Id")
	}

	c.logger.InfoContext(ctx, "Post published", "post_id", postID, "with_image", req.ImageAssetURN != "")

	return &protocol.PublishResult{PostID: postID}, nil
}
