package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamwatch/internal/apiclient"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show detection database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				health, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Detections", colorize) {
					fmt.Fprintln(out, line)
				}
				summary := health.Summary
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", summary.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Awaiting capture", statusInfo, fmt.Sprintf("%d", summary.Found), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", summary.Processing), colorize))
				reviewKind := statusOK
				if summary.Review > 0 {
					reviewKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Needs review", reviewKind, fmt.Sprintf("%d", summary.Review), colorize))
				errKind := statusOK
				if summary.Errored > 0 {
					errKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Errored", errKind, fmt.Sprintf("%d", summary.Errored), colorize))
				fmt.Fprintln(out, renderStatusLine("Enforced", statusInfo, fmt.Sprintf("%d", summary.Enforced), colorize))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Database", colorize) {
					fmt.Fprintln(out, line)
				}
				db := health.Database
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, db.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(db.DatabaseReadable), yesNo(db.DatabaseReadable), colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(db.IntegrityCheck), yesNo(db.IntegrityCheck), colorize))
				if db.SchemaVersion != "" {
					fmt.Fprintln(out, renderStatusLine("Schema", statusInfo, db.SchemaVersion, colorize))
				}
				if len(db.MissingColumns) > 0 {
					fmt.Fprintln(out, renderStatusLine("Missing columns", statusError, strings.Join(db.MissingColumns, ", "), colorize))
				}
				if db.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, db.Error, colorize))
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
