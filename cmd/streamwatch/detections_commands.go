package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streamwatch/internal/api"
	"streamwatch/internal/apiclient"
)

func newDetectionsCommand(ctx *commandContext) *cobra.Command {
	detectionsCmd := &cobra.Command{
		Use:   "detections",
		Short: "Inspect and manage tracked detections",
	}

	detectionsCmd.AddCommand(newDetectionsListCommand(ctx))
	detectionsCmd.AddCommand(newDetectionsShowCommand(ctx))
	detectionsCmd.AddCommand(newDetectionsRetryCommand(ctx))
	detectionsCmd.AddCommand(newDetectionsRemoveCommand(ctx))
	detectionsCmd.AddCommand(newDetectionsClearCommand(ctx))

	return detectionsCmd
}

func newDetectionsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				items, err := client.ListDetections(cmd.Context(), listStatuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No detections tracked")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Platform", "Title", "Status", "Decision", "Risk", "URL"},
					buildDetectionRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newDetectionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a detection with evidence, matches, and enforcement history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDetectionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				detail, err := client.Describe(cmd.Context(), id)
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

func newDetectionsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>...",
		Short: "Resume errored detections from their last good stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := parseDetectionID(arg)
					if err != nil {
						return err
					}
					detail, err := client.RunStage(cmd.Context(), id, "retry")
					switch {
					case err == nil:
						fmt.Fprintf(out, "Detection %d resumed at %s\n", id, detail.Detection.Status)
					case apiclient.IsNotFound(err):
						fmt.Fprintf(out, "Detection %d not found\n", id)
					case apiclient.IsConflict(err):
						fmt.Fprintf(out, "Detection %d is not in a retryable state\n", id)
					default:
						return err
					}
				}
				return nil
			})
		},
	}
}

func newDetectionsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a detection and its captured artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDetectionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				if err := client.RemoveDetection(cmd.Context(), id); err != nil {
					if apiclient.IsNotFound(err) {
						return fmt.Errorf("detection %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Detection %d removed\n", id)
				return nil
			})
		},
	}
}

func newDetectionsClearCommand(ctx *commandContext) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Bulk-remove detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch scope {
			case "all", "enforced", "errored":
			default:
				return fmt.Errorf("unknown scope %q (expected all, enforced, or errored)", scope)
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				removed, err := client.ClearDetections(cmd.Context(), scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d detections\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "all", "Which detections to remove: all, enforced, or errored")
	return cmd
}

func parseDetectionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid detection id %q", arg)
	}
	return id, nil
}

func buildDetectionRows(items []api.Detection) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Platform,
			truncate(item.Title, 32),
			item.Status,
			item.Decision,
			formatScore(item.RiskScore),
			truncate(item.URL, 48),
		})
	}
	return rows
}

func formatScore(value float64) string {
	if value == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", value)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
