package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"highlighter/internal/api"
)

func newAddFileCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "add-file <path>",
		Short: "Queue a local video file for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				video, err := svc.videos.AddFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printQueued(cmd, video, jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAddLinkCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "add-link <url>",
		Short: "Queue a video link (e.g. a Twitch VOD) for download and processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				video, err := svc.videos.AddLink(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printQueued(cmd, video, jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printQueued(cmd *cobra.Command, video api.Video, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, video)
	}
	writeQueued(cmd.OutOrStdout(), video)
	return nil
}

func writeQueued(out io.Writer, video api.Video) {
	if video.Job != nil {
		fmt.Fprintf(out, "Queued %s as video %s (job #%d)\n", video.Source.Location, video.ID, video.Job.ID)
		return
	}
	fmt.Fprintf(out, "Queued %s as video %s\n", video.Source.Location, video.ID)
}
