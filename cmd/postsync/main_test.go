package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/postsync/pkg/config"
	"github.com/dukex/postsync/pkg/persistence/file"
	"github.com/dukex/postsync/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

func TestScheduleEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedules:\n  - cron: \"@daily\"\n    niche: fitness\n    user_id: u1\n"), 0o600))

	var entries []schedule.Entry

	command := ScheduleCommand()
	command.Action = func(_ context.Context, command *cli.Command) error {
		var err error

		entries, err = scheduleEntries(command)

		return err
	}

	err := command.Run(context.Background(), []string{"schedule", "--file", path, "--entry", "0 9 * * 1;devops;u2"})
	require.NoError(t, err)

	assert.Equal(t, []schedule.Entry{
		{Cron: "@daily", Niche: "fitness", UserID: "u1"},
		{Cron: "0 9 * * 1", Niche: "devops", UserID: "u2"},
	}, entries)
}

func TestCredentialsSet(t *testing.T) {
	root := t.TempDir()

	command := &cli.Command{Name: "postsync", Flags: config.Flags(), Commands: []*cli.Command{CredentialsCommand()}}

	err := command.Run(context.Background(), []string{
		"postsync", "--database-url", root, "credentials", "set", "--user-id", "u1", "--access-token", "tok", "--person-urn", "42",
	})
	require.NoError(t, err)

	creds, err := file.NewPersistence(root).Credentials(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "urn:li:person:42", creds.PersonURN)
}
