package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dukex/postsync/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the workflow once for a niche and print the final run record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "niche",
				Aliases:  []string{"n"},
				Usage:    "Subject domain of the post",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user-id",
				Aliases:  []string{"u"},
				Usage:    "User whose stored credentials publish the post",
				Required: true,
				Sources:  cli.EnvVars("POSTSYNC_USER_ID"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, agent, err := openAgent(ctx, command, "postsync-run")
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := agent.Start(ctx, services.StartRequest{
				Niche:  command.String("niche"),
				UserID: command.String("user-id"),
			})
			if result != nil {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				if encodeErr := encoder.Encode(result.Run); encodeErr != nil {
					rt.logger.ErrorContext(ctx, "Failed to print run", "error", encodeErr)
				}
			}

			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			return nil
		},
	}
}
