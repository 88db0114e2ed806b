package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamwatch/internal/apiclient"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.TestNotification(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.Message != "":
					fmt.Fprintln(out, resp.Message)
				case resp.Sent:
					fmt.Fprintln(out, "Test notification sent")
				default:
					fmt.Fprintln(out, "Notification not sent")
				}
				return nil
			})
		},
	}
}
