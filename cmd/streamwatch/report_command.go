package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamwatch/internal/api"
	"streamwatch/internal/apiclient"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "report <platform> <url>",
		Short: "Report a suspected pirated stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.Enqueue(cmd.Context(), api.CandidateRequest{
					Platform: args[0],
					URL:      args[1],
					Title:    title,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Created {
					fmt.Fprintf(out, "Detection %d queued for capture\n", resp.Detection.ID)
				} else {
					fmt.Fprintf(out, "Already tracked as detection %d (status %s)\n", resp.Detection.ID, resp.Detection.Status)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Stream title as reported")
	return cmd
}
