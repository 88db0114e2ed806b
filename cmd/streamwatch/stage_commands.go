package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamwatch/internal/apiclient"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return newStageCommand(ctx, "capture", "Capture a sample and fingerprints for a detection")
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return newStageCommand(ctx, "match", "Match a fingerprinted detection against the catalog")
}

func newEnforceCommand(ctx *commandContext) *cobra.Command {
	return newStageCommand(ctx, "enforce", "Send the takedown notice for an approved detection")
}

func newStageCommand(ctx *commandContext, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDetectionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				detail, err := client.RunStage(cmd.Context(), id, action)
				if err != nil {
					if apiclient.IsNotFound(err) {
						return fmt.Errorf("detection %d not found", id)
					}
					return err
				}
				renderDetectionDetail(cmd.OutOrStdout(), detail)
				return nil
			})
		},
	}
}
