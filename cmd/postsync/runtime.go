package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/postsync/pkg/cmd"
	"github.com/dukex/postsync/pkg/config"
	"github.com/dukex/postsync/pkg/credentials"
	"github.com/dukex/postsync/pkg/eventbus"
	"github.com/dukex/postsync/pkg/events"
	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/dukex/postsync/pkg/services"
	cli "github.com/urfave/cli/v3"
)

// runtime holds what a subcommand opened; close releases it in reverse order.
type runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	persistence persistence.Persistence
	resolver    *credentials.Resolver
	eventBus    eventbus.EventBus
	closers     []func() error
}

// openStore opens persistence and the credential resolver only. It does not
// require the model keys.
func openStore(ctx context.Context, command *cli.Command, module string) (*runtime, error) {
	cfg := config.FromCommand(command)
	log.Setup(cfg.LogLevel, cfg.LogFormat)

	rt := &runtime{cfg: cfg, logger: log.WithModule(module)}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is required (DATABASE_URL)")
	}

	store, err := cmd.NewPersistence(ctx, rt.logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	rt.persistence = store
	rt.closers = append(rt.closers, func() error { return store.Close(context.Background()) })

	rt.resolver, err = cmd.NewResolver(cfg, store, rt.logger)
	if err != nil {
		rt.close()

		return nil, err
	}

	return rt, nil
}

// openAgent opens everything a workflow run needs, with step progress logged
// from the event bus.
func openAgent(ctx context.Context, command *cli.Command, module string) (*runtime, *services.Agent, error) {
	cfg := config.FromCommand(command)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	rt, err := openStore(ctx, command, module)
	if err != nil {
		return nil, nil, err
	}

	shutdownTracing := cmd.SetupTracing(ctx, cfg.OTelEnabled, "postsync", rt.logger)
	rt.closers = append(rt.closers, func() error { return shutdownTracing(context.Background()) })

	rt.eventBus, err = cmd.NewEventBus(cfg.EventBus, cfg.KafkaBrokers, "postsync-cli", rt.logger)
	if err != nil {
		rt.close()

		return nil, nil, err
	}

	rt.closers = append(rt.closers, rt.eventBus.Close)

	if err := rt.eventBus.Handle(events.StepCompletedEvent, rt.logStep); err != nil {
		rt.close()

		return nil, nil, err
	}

	if err := rt.eventBus.Subscribe(ctx); err != nil {
		rt.close()

		return nil, nil, err
	}

	agent, err := cmd.NewAgent(cfg, rt.persistence, rt.resolver, rt.eventBus, rt.logger)
	if err != nil {
		rt.close()

		return nil, nil, err
	}

	return rt, agent, nil
}

func (rt *runtime) logStep(ctx context.Context, event any) error {
	step, ok := event.(*events.StepCompleted)
	if !ok {
		return nil
	}

	rt.logger.InfoContext(ctx, "Node executed",
		"run_id", step.RunID,
		"node", step.Node,
		"next", step.Next,
		"iteration", step.IterationCount,
	)

	return nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Error("Failed to release resource", "error", err)
		}
	}
}
