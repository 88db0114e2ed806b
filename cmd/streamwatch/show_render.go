package main

import (
	"fmt"
	"io"
	"strconv"

	"streamwatch/internal/api"
)

func renderDetectionDetail(out io.Writer, detail *api.DetectionDetail) {
	colorize := shouldColorize(out)
	detection := detail.Detection

	for _, line := range renderSectionHeader(fmt.Sprintf("Detection %d", detection.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Platform", statusInfo, detection.Platform, colorize))
	fmt.Fprintln(out, renderStatusLine("URL", statusInfo, detection.URL, colorize))
	if detection.Title != "" {
		fmt.Fprintln(out, renderStatusLine("Title", statusInfo, detection.Title, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Status", statusKindForStatus(detection.Status), detection.Status, colorize))
	if detection.Decision != "" {
		fmt.Fprintln(out, renderStatusLine("Decision", statusKindForDecision(detection.Decision), detection.Decision, colorize))
		fmt.Fprintln(out, renderStatusLine("Risk score", statusInfo, fmt.Sprintf("%.3f", detection.RiskScore), colorize))
		fmt.Fprintln(out, renderStatusLine("Confidence", statusInfo, fmt.Sprintf("%.3f", detection.Confidence), colorize))
	}
	if detection.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, detection.ErrorMessage, colorize))
	}

	if evidence := detail.Evidence; evidence != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Evidence", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, renderStatusLine("Source", statusInfo, evidence.Source, colorize))
		if evidence.StorageKey != "" {
			fmt.Fprintln(out, renderStatusLine("Sample", statusInfo, evidence.StorageKey, colorize))
		}
		if evidence.DurationSeconds > 0 {
			fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, fmt.Sprintf("%.1fs", evidence.DurationSeconds), colorize))
		}
		renderModality(out, "Video", evidence.VideoFingerprint, evidence.VideoNote, colorize)
		renderModality(out, "Audio", evidence.AudioFingerprint, evidence.AudioNote, colorize)
	}

	if len(detail.Matches) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Matches", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(detail.Matches))
		for _, match := range detail.Matches {
			rows = append(rows, []string{
				strconv.FormatInt(match.ReferenceID, 10),
				match.Category,
				fmt.Sprintf("%.3f", match.VideoScore),
				fmt.Sprintf("%.3f", match.AudioScore),
				fmt.Sprintf("%.3f", match.Confidence),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Reference", "Category", "Video", "Audio", "Confidence"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
		))
	}

	if len(detail.Enforcements) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Enforcement", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(detail.Enforcements))
		for _, enforcement := range detail.Enforcements {
			rows = append(rows, []string{
				enforcement.Action,
				yesNo(enforcement.Sent),
				yesNo(enforcement.DryRun),
				enforcement.MessageID,
				truncate(enforcement.Recipients, 48),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Action", "Sent", "Dry run", "Message ID", "Recipients"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}
}

func renderModality(out io.Writer, label, fingerprint, note string, colorize bool) {
	switch {
	case fingerprint != "":
		fmt.Fprintln(out, renderStatusLine(label, statusOK, truncate(fingerprint, 24), colorize))
	case note != "":
		fmt.Fprintln(out, renderStatusLine(label, statusWarn, note, colorize))
	}
}

func statusKindForStatus(status string) statusKind {
	switch status {
	case "error":
		return statusError
	case "review":
		return statusWarn
	case "enforced":
		return statusOK
	default:
		return statusInfo
	}
}

func statusKindForDecision(decision string) statusKind {
	switch decision {
	case "approve":
		return statusOK
	case "review":
		return statusWarn
	case "reject":
		return statusInfo
	default:
		return statusInfo
	}
}
