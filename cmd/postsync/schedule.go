package main

import (
	"context"
	"errors"

	"github.com/dukex/postsync/pkg/config"
	"github.com/dukex/postsync/pkg/schedule"
	"github.com/dukex/postsync/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the workflow on cron schedules until interrupted",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   `Schedule entry "<cron>;<niche>;<user_id>", repeatable`,
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "YAML file with a schedules list",
				Sources: cli.EnvVars("POSTSYNC_SCHEDULES"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			entries, err := scheduleEntries(command)
			if err != nil {
				return err
			}

			rt, agent, err := openAgent(ctx, command, "postsync-schedule")
			if err != nil {
				return err
			}
			defer rt.close()

			scheduler := schedule.New(func(ctx context.Context, niche, userID string) error {
				_, err := agent.Start(ctx, services.StartRequest{Niche: niche, UserID: userID})

				return err
			}, rt.logger)

			for _, entry := range entries {
				if _, err := scheduler.Add(entry); err != nil {
					return err
				}
			}

			scheduler.Start(ctx)
			<-ctx.Done()
			scheduler.Stop()

			return nil
		},
	}
}

func scheduleEntries(command *cli.Command) ([]schedule.Entry, error) {
	var entries []schedule.Entry

	if path := command.String("file"); path != "" {
		loaded, err := config.LoadSchedules(path)
		if err != nil {
			return nil, err
		}

		entries = append(entries, loaded...)
	}

	for _, raw := range command.StringSlice("entry") {
		entry, err := schedule.ParseEntry(raw)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, errors.New("no schedules: pass --entry or --file")
	}

	return entries, nil
}
