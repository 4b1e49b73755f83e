// Package web provides the HTTP handlers of the PostSync API.
package web

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/postsync/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const userIDLocal = "user_id"

// AgentStarter runs one post generation workflow.
type AgentStarter interface {
	Start(ctx context.Context, req services.StartRequest) (*services.RunResult, error)
}

type APIHandlers struct {
	agent       AgentStarter
	posts       *services.Posts
	credentials *services.Credentials
	validator   *validator.Validate
	admins      []string
}

type HandlerOption func(*APIHandlers)

// WithAdminUsers lists the user ids allowed on the admin routes.
func WithAdminUsers(userIDs []string) HandlerOption {
	return func(h *APIHandlers) {
		h.admins = slices.Clone(userIDs)
	}
}

func NewAPIHandlers(
	agent AgentStarter,
	posts *services.Posts,
	credentials *services.Credentials,
	validator *validator.Validate,
	opts ...HandlerOption,
) *APIHandlers {
	handlers := &APIHandlers{
		agent:       agent,
		posts:       posts,
		credentials: credentials,
		validator:   validator,
	}

	for _, opt := range opts {
		opt(handlers)
	}

	return handlers
}

// Register mounts every route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/api/users", RequireUser, h.RequireAdmin, h.ListUsers)

	agent := router.Group("/agent", RequireUser)
	agent.Post("/start", h.StartAgent)
	agent.Get("/summary", h.AgentSummary)
	agent.Get("/runs", h.ListRuns)

	api := router.Group("/api", RequireUser)
	api.Get("/me", h.Me)
	api.Post("/posts", h.CreatePost)
	api.Get("/posts/count", h.CountPosts)
	api.Get("/posts/recent", h.RecentPosts)
	api.Get("/posts/stats", h.PostStats)
	api.Get("/posts/platform/:platform", h.PostsByPlatform)
	api.Get("/summary", h.JobSummary)
	api.Put("/summary/:field", h.UpdateJobSummary)

	router.Put("/auth/credentials", RequireUser, h.SaveCredentials)
}

// RequireUser rejects requests without an X-User-ID header.
func RequireUser(c fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get(UserIDHeader))
	if userID == "" {
		return unauthorized(c, "missing "+UserIDHeader+" header")
	}

	c.Locals(userIDLocal, userID)

	return c.Next()
}

// RequireAdmin rejects users that are not listed with WithAdminUsers. It
// must run after RequireUser. Without configured admins every user is rejected.
func (h *APIHandlers) RequireAdmin(c fiber.Ctx) error {
	if !slices.Contains(h.admins, currentUser(c)) {
		return forbidden(c, "admin access required")
	}

	return c.Next()
}

func currentUser(c fiber.Ctx) string {
	userID, _ := c.Locals(userIDLocal).(string)

	return userID
}

func (h *APIHandlers) StartAgent(c fiber.Ctx) error {
	var req StartAgentRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	result, err := h.agent.Start(c, services.StartRequest{Niche: req.Niche, UserID: currentUser(c)})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(StartAgentResponse{
		Status:     "success",
		Message:    "Workflow completed",
		Run:        result.Run,
		FinalState: result.State,
	})
}

func (h *APIHandlers) AgentSummary(c fiber.Ctx) error {
	summary, err := h.posts.AgentSummary(c, currentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	limit, err := queryLimit(c)
	if err != nil {
		return badRequest(c, "Invalid limit")
	}

	runs, err := h.posts.Runs(c, currentUser(c), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunsResponse{Runs: runs, Count: len(runs)})
}

func (h *APIHandlers) Me(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"user_id": currentUser(c)})
}

func (h *APIHandlers) CreatePost(c fiber.Ctx) error {
	var req services.CreatePostRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	id, err := h.posts.Create(c, currentUser(c), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreatePostResponse{
		Success: true,
		PostID:  id,
		Message: "Post saved successfully",
	})
}

func (h *APIHandlers) CountPosts(c fiber.Ctx) error {
	count, err := h.posts.Count(c, currentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"total_posts": count})
}

func (h *APIHandlers) RecentPosts(c fiber.Ctx) error {
	limit, err := queryLimit(c)
	if err != nil {
		return badRequest(c, "Invalid limit")
	}

	posts, err := h.posts.Recent(c, currentUser(c), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PostsResponse{Posts: posts, Count: len(posts)})
}

func (h *APIHandlers) PostsByPlatform(c fiber.Ctx) error {
	platform := c.Params("platform")
	if platform == "" {
		return badRequest(c, "Platform is required")
	}

	limit, err := queryLimit(c)
	if err != nil {
		return badRequest(c, "Invalid limit")
	}

	posts, err := h.posts.ByPlatform(c, currentUser(c), platform, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PostsResponse{Platform: platform, Posts: posts, Count: len(posts)})
}

func (h *APIHandlers) PostStats(c fiber.Ctx) error {
	stats, err := h.posts.Stats(c, currentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) JobSummary(c fiber.Ctx) error {
	summary, err := h.posts.JobSummary(c, currentUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) UpdateJobSummary(c fiber.Ctx) error {
	field := c.Params("field")

	increment := 1

	if raw := c.Query("increment"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "Invalid increment")
		}

		increment = value
	}

	err := h.posts.IncrementJobSummary(c, currentUser(c), field, increment)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Updated " + field + " by " + strconv.Itoa(increment)})
}

func (h *APIHandlers) ListUsers(c fiber.Ctx) error {
	users, err := h.posts.Users(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(UsersResponse{Users: users, Count: len(users)})
}

func (h *APIHandlers) SaveCredentials(c fiber.Ctx) error {
	var req services.SaveCredentialsRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err := h.credentials.Save(c, currentUser(c), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Credentials saved"})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.posts.HealthCheck(c)
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": message,
	})
}

func queryLimit(c fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}

	return strconv.Atoi(raw)
}
