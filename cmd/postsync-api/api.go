// Package main provides the PostSync API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/postsync/pkg/metrics"
	"github.com/dukex/postsync/pkg/services"
	"github.com/dukex/postsync/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	agent       web.AgentStarter
	posts       *services.Posts
	credentials *services.Credentials
	metrics     *metrics.Metrics
	corsOrigins []string
	adminUsers  []string
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	agent web.AgentStarter,
	posts *services.Posts,
	credentials *services.Credentials,
	metrics *metrics.Metrics,
	corsOrigins []string,
	adminUsers []string,
) *API {
	return &API{
		logger:      logger,
		agent:       agent,
		posts:       posts,
		credentials: credentials,
		metrics:     metrics,
		corsOrigins: corsOrigins,
		adminUsers:  adminUsers,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.agent, a.posts, a.credentials, a.validate,
		web.WithAdminUsers(a.adminUsers),
	)

	app := fiber.New()

	if len(a.corsOrigins) > 0 {
		app.Use(cors.New(cors.Config{AllowOrigins: a.corsOrigins}))
	} else {
		app.Use(cors.New())
	}

	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("PostSync API")
	})

	if a.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))
	}

	handlers.Register(app)

	return app
}

// Start serves until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
