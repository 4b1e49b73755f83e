// Package main provides the postsync command line: one-shot runs, scheduled
// runs and credential management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/postsync/pkg/config"
	cli "github.com/urfave/cli/v3"
)

func main() {
	config.LoadDotEnv(".env")

	command := &cli.Command{
		Name:                  "postsync",
		Usage:                 "Generate and publish LinkedIn posts",
		EnableShellCompletion: true,
		Flags:                 config.Flags(),
		Commands: []*cli.Command{
			RunCommand(),
			ScheduleCommand(),
			CredentialsCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
