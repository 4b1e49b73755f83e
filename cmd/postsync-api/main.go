package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dukex/postsync/pkg/cmd"
	"github.com/dukex/postsync/pkg/config"
	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/metrics"
	"github.com/dukex/postsync/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8000

func main() {
	config.LoadDotEnv(".env")

	flags := append([]cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "cors-origins",
			Usage:   "Comma separated allowed CORS origins (all when empty)",
			Sources: cli.EnvVars("CORS_ORIGINS"),
		},
		&cli.StringFlag{
			Name:    "admin-users",
			Usage:   "Comma separated user ids allowed to list all users",
			Sources: cli.EnvVars("ADMIN_USER_IDS"),
		},
	}, config.Flags()...)

	command := &cli.Command{
		Name:                  "postsync-api",
		Usage:                 "Serve the PostSync HTTP API",
		EnableShellCompletion: true,
		Flags:                 flags,
		Action:                run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	cfg := config.FromCommand(command)
	log.Setup(cfg.LogLevel, cfg.LogFormat)

	logger := log.WithModule("api")

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Initializing PostSync API")

	shutdownTracing := cmd.SetupTracing(ctx, cfg.OTelEnabled, "postsync-api", logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer", "error", err)
		}
	}()

	persistence, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.Background()); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(cfg.EventBus, cfg.KafkaBrokers, "postsync-api", logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	runMetrics := metrics.New()
	if err := runMetrics.Register(eventBus); err != nil {
		return err
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return err
	}

	resolver, err := cmd.NewResolver(cfg, persistence, logger)
	if err != nil {
		return err
	}

	agent, err := cmd.NewAgent(cfg, persistence, resolver, eventBus, logger)
	if err != nil {
		return err
	}

	api := NewAPI(
		logger,
		agent,
		services.NewPosts(persistence),
		services.NewCredentials(resolver),
		runMetrics,
		splitList(command.String("cors-origins")),
		splitList(command.String("admin-users")),
	)

	return api.Start(ctx, int(command.Int("port")))
}

// splitList splits a comma separated flag value, dropping blank items.
func splitList(raw string) []string {
	var items []string

	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
