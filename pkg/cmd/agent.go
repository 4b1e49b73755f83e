package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/postsync/pkg/config"
	"github.com/dukex/postsync/pkg/credentials"
	"github.com/dukex/postsync/pkg/eventbus"
	"github.com/dukex/postsync/pkg/imagegen"
	"github.com/dukex/postsync/pkg/linkedin"
	"github.com/dukex/postsync/pkg/llm"
	"github.com/dukex/postsync/pkg/nodes/content"
	"github.com/dukex/postsync/pkg/nodes/image"
	"github.com/dukex/postsync/pkg/nodes/publish"
	"github.com/dukex/postsync/pkg/nodes/reviewer"
	"github.com/dukex/postsync/pkg/nodes/topic"
	"github.com/dukex/postsync/pkg/otelhelper"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/dukex/postsync/pkg/services"
	"github.com/dukex/postsync/pkg/workflow"
)

// disabledImages answers every prompt without an image, so runs publish text only.
type disabledImages struct{}

func (disabledImages) GenerateImage(context.Context, string) ([]byte, error) {
	return nil, nil
}

// NewResolver builds the credential resolver, cached in redis when cfg names one.
func NewResolver(cfg config.Config, store persistence.CredentialStore, logger *slog.Logger) (*credentials.Resolver, error) {
	if cfg.RedisURL == "" {
		return credentials.NewResolver(store, logger), nil
	}

	client, err := credentials.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return credentials.NewResolver(store, logger, credentials.WithCache(client, credentials.DefaultCacheTTL)), nil
}

// NewAgent wires the capability clients, the five nodes and the executor.
func NewAgent(
	cfg config.Config,
	store persistence.Persistence,
	resolver protocol.CredentialResolver,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) (*services.Agent, error) {
	text, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}

	var images protocol.ImageGenerator = disabledImages{}

	if cfg.GeminiAPIKey != "" {
		images, err = imagegen.New(imagegen.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiImageModel,
			RetryCount: 1,
		}, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, posts will be published without images")
	}

	linkedinClient := linkedin.New(linkedin.Config{BaseURL: cfg.LinkedInAPIURL, RetryCount: 1}, logger)

	graph, err := workflow.NewPostGraph(workflow.PostNodes{
		TopicGenerator:  topic.NewNode(text, logger),
		ContentCreator:  content.NewNode(text, logger),
		Reviewer:        reviewer.NewNode(text, logger, reviewer.WithMaxIterations(cfg.MaxIterations)),
		ImageGeneration: image.NewNode(images, linkedinClient, logger, image.WithTempDir(cfg.ImageDir)),
		PostExecutor:    publish.NewNode(linkedinClient, store, logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build post graph: %w", err)
	}

	executor := workflow.NewExecutor(graph,
		workflow.WithLogger(logger),
		workflow.WithTracer(otelhelper.Tracer("postsync/workflow")),
	)

	opts := []services.AgentOption{services.WithMaxIterations(cfg.MaxIterations)}
	if bus != nil {
		opts = append(opts, services.WithEventPublisher(bus))
	}

	return services.NewAgent(executor, resolver, store, logger, opts...), nil
}

// SetupTracing installs the OTLP tracer provider when enabled. The returned
// shutdown is never nil.
func SetupTracing(ctx context.Context, enabled bool, serviceName string, logger *slog.Logger) otelhelper.Shutdown {
	noop := func(context.Context) error { return nil }

	if !enabled {
		return noop
	}

	_, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)

		return noop
	}

	return shutdown
}
