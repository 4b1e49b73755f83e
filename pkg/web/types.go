package web

import (
	"github.com/dukex/postsync/pkg/models"
)

// UserIDHeader carries the authenticated user id set by the fronting auth proxy.
const UserIDHeader = "X-User-ID"

type StartAgentRequest struct {
	Niche string `json:"niche" validate:"required"`
}

type StartAgentResponse struct {
	Status     string                `json:"status"`
	Message    string                `json:"message"`
	Run        *models.Run           `json:"run"`
	FinalState *models.WorkflowState `json:"final_state"`
}

type CreatePostResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id"`
	Message string `json:"message"`
}

type PostsResponse struct {
	Platform string         `json:"platform,omitempty"`
	Posts    []*models.Post `json:"posts"`
	Count    int            `json:"count"`
}

type UsersResponse struct {
	Users []*models.UserSummary `json:"users"`
	Count int                   `json:"count"`
}

type RunsResponse struct {
	Runs  []*models.Run `json:"runs"`
	Count int           `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
