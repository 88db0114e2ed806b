package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"streamwatch/internal/api"
	"streamwatch/internal/apiclient"
	"streamwatch/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				renderDaemonStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func renderDaemonStatus(out io.Writer, status *api.DaemonStatus) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusWarn
	runningMsg := "stopped"
	if status.Running {
		runningKind = statusOK
		runningMsg = fmt.Sprintf("pid %d", status.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DetectionDBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Pipeline", colorize) {
		fmt.Fprintln(out, line)
	}
	pipelineKind := statusWarn
	pipelineMsg := "idle"
	if status.Pipeline.Running {
		pipelineKind = statusOK
		pipelineMsg = "processing"
	}
	fmt.Fprintln(out, renderStatusLine("Loop", pipelineKind, pipelineMsg, colorize))
	if status.Pipeline.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Pipeline.LastError, colorize))
	}
	for _, health := range status.Pipeline.StageHealth {
		kind := statusOK
		if !health.Ready {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Stage "+health.Name, kind, health.Detail, colorize))
	}

	rows := buildStatusRows(status.Pipeline.Stats)
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Detections", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No detections tracked")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

// buildStatusRows orders counts by lifecycle position and drops zero rows.
func buildStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range store.AllStatuses() {
		count := stats[string(status)]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}
