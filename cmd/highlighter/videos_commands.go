package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/api"
	"highlighter/internal/highlights"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	videosCmd := &cobra.Command{
		Use:     "videos",
		Aliases: []string{"video"},
		Short:   "Inspect and manage the video library",
	}

	videosCmd.AddCommand(newVideosListCommand(ctx))
	videosCmd.AddCommand(newVideosShowCommand(ctx))
	videosCmd.AddCommand(newVideosRemoveCommand(ctx))
	videosCmd.AddCommand(newVideosPruneCommand(ctx))

	return videosCmd
}

func newVideosListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library videos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				videos, err := svc.videos.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, videos)
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No videos")
					return nil
				}
				fmt.Fprint(out, renderVideoTable(videos, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderVideoTable(videos []api.Video, colorize bool) string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		status := "-"
		if v.Job != nil {
			status = colorStatus(v.Job.Status, colorize)
		}
		rows = append(rows, []string{
			v.ID,
			truncate(videoName(v), 40),
			status,
			formatDuration(v.DurationSeconds),
			formatBytes(v.Size),
			yesNo(v.HasHighlights),
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Status", "Duration", "Size", "Highlights"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func videoName(v api.Video) string {
	if v.Title != "" {
		return v.Title
	}
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return highlights.FormatClock(seconds)
}

func newVideosShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one video with its files and job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				video, err := svc.videos.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, video)
				}
				out := cmd.OutOrStdout()
				writeVideoDetails(out, video, shouldColorize(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func writeVideoDetails(out io.Writer, v api.Video, colorize bool) {
	fmt.Fprintf(out, "Video %s\n", v.ID)
	fmt.Fprintf(out, "  Name:       %s\n", valueOrDash(v.Name))
	if v.Title != "" {
		fmt.Fprintf(out, "  Title:      %s\n", v.Title)
	}
	source := v.Source.Location
	if v.Source.Platform != "" {
		source += " (" + v.Source.Platform + ")"
	}
	fmt.Fprintf(out, "  Source:     %s\n", valueOrDash(source))
	fmt.Fprintf(out, "  Created:    %s\n", valueOrDash(v.CreatedAt))
	fmt.Fprintf(out, "  Duration:   %s\n", formatDuration(v.DurationSeconds))
	fmt.Fprintf(out, "  Size:       %s\n", formatBytes(v.Size))
	fmt.Fprintf(out, "  Files:      %s\n", valueOrDash(strings.Join(v.Files, ", ")))
	fmt.Fprintf(out, "  Scores:     %s\n", yesNo(v.HasScores))
	fmt.Fprintf(out, "  Highlights: %s\n", yesNo(v.HasHighlights))
	if v.Job != nil {
		fmt.Fprintf(out, "  Job:        #%d %s\n", v.Job.ID, colorStatus(v.Job.Status, colorize))
		if v.Job.ErrorMessage != "" {
			fmt.Fprintf(out, "  Error:      %s\n", v.Job.ErrorMessage)
		}
	}
}

func newVideosRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Delete videos and their jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				out := cmd.OutOrStdout()
				var failed int
				for _, id := range args {
					if err := svc.videos.Remove(cmd.Context(), id); err != nil {
						fmt.Fprintf(out, "Video %s: %v\n", id, err)
						failed++
						continue
					}
					fmt.Fprintf(out, "Video %s: removed\n", id)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d video(s) not removed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func newVideosPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete videos older than library.retention_days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				out := cmd.OutOrStdout()
				if svc.cfg.RetentionWindow() <= 0 {
					fmt.Fprintln(out, "Retention is disabled (library.retention_days = 0)")
					return nil
				}
				removed, err := svc.videos.PruneExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d expired video(s)\n", removed)
				return nil
			})
		},
	}
}
