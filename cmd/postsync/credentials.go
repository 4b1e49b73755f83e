package main

import (
	"context"
	"fmt"

	"github.com/dukex/postsync/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func CredentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Manage stored LinkedIn credentials",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store the access token and person URN of a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "access-token", Required: true, Sources: cli.EnvVars("LINKEDIN_ACCESS_TOKEN")},
					&cli.StringFlag{Name: "person-urn", Usage: "urn:li:person:<id> or the bare id", Required: true, Sources: cli.EnvVars("LINKEDIN_PERSON_URN")},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					rt, err := openStore(ctx, command, "postsync-credentials")
					if err != nil {
						return err
					}
					defer rt.close()

					userID := command.String("user-id")

					err = services.NewCredentials(rt.resolver).Save(ctx, userID, services.SaveCredentialsRequest{
						AccessToken: command.String("access-token"),
						PersonURN:   command.String("person-urn"),
					})
					if err != nil {
						return err
					}

					fmt.Printf("credentials stored for %s\n", userID)

					return nil
				},
			},
		},
	}
}
