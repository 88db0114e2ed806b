package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"streamwatch/internal/api"
	"streamwatch/internal/apiclient"
)

func newReferencesCommand(ctx *commandContext) *cobra.Command {
	referencesCmd := &cobra.Command{
		Use:   "references",
		Short: "Manage the protected broadcast catalog",
	}

	referencesCmd.AddCommand(newReferencesAddCommand(ctx))
	referencesCmd.AddCommand(newReferencesLoadCommand(ctx))
	referencesCmd.AddCommand(newReferencesListCommand(ctx))
	referencesCmd.AddCommand(newReferencesRemoveCommand(ctx))

	return referencesCmd
}

func newReferencesAddCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var videoFingerprint string
	var audioFingerprint string

	cmd := &cobra.Command{
		Use:   "add <platform> <title>",
		Short: "Load or refresh a catalog entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				reference, err := client.UpsertReference(cmd.Context(), api.ReferenceRequest{
					Platform:         args[0],
					Title:            args[1],
					ContentType:      contentType,
					VideoFingerprint: videoFingerprint,
					AudioFingerprint: audioFingerprint,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reference %d stored for %s\n", reference.ID, reference.Platform)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "sports", "Catalog content type")
	cmd.Flags().StringVar(&videoFingerprint, "video-fingerprint", "", "Hex video fingerprint")
	cmd.Flags().StringVar(&audioFingerprint, "audio-fingerprint", "", "Hex audio fingerprint")
	return cmd
}

func newReferencesLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <catalog.json>",
		Short: "Bulk-load catalog entries from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read catalog file: %w", err)
			}
			var entries []api.ReferenceRequest
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse catalog file: %w", err)
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				out := cmd.OutOrStdout()
				loaded := 0
				for _, entry := range entries {
					reference, err := client.UpsertReference(cmd.Context(), entry)
					if err != nil {
						fmt.Fprintf(out, "Skipping %s/%s: %v\n", entry.Platform, entry.Title, err)
						continue
					}
					loaded++
					fmt.Fprintf(out, "Reference %d stored for %s\n", reference.ID, reference.Platform)
				}
				fmt.Fprintf(out, "Loaded %d of %d catalog entries\n", loaded, len(entries))
				return nil
			})
		},
	}
}

func newReferencesListCommand(ctx *commandContext) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				references, err := client.ListReferences(cmd.Context(), platform)
				if err != nil {
					return err
				}
				if len(references) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}
				rows := make([][]string, 0, len(references))
				for _, reference := range references {
					rows = append(rows, []string{
						strconv.FormatInt(reference.ID, 10),
						reference.Platform,
						truncate(reference.Title, 40),
						reference.ContentType,
						yesNo(reference.VideoFingerprint != ""),
						yesNo(reference.AudioFingerprint != ""),
					})
				}
				table := renderTable(
					[]string{"ID", "Platform", "Title", "Type", "Video", "Audio"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	return cmd
}

func newReferencesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid reference id %q", args[0])
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				if err := client.RemoveReference(cmd.Context(), id); err != nil {
					if apiclient.IsNotFound(err) {
						return fmt.Errorf("reference %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reference %d removed\n", id)
				return nil
			})
		},
	}
}
