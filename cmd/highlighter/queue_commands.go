package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/api"
	"highlighter/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show job counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				stats, err := svc.queue.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// buildQueueStatusRows lists non-zero counts in pipeline order.
func buildQueueStatusRows(stats map[string]int) [][]string {
	var rows [][]string
	for _, status := range queue.AllStatuses() {
		count := stats[string(status)]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *serviceSet) error {
				jobs, err := svc.queue.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, jobs)
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				fmt.Fprint(out, renderJobTable(jobs, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Only show jobs with these statuses")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func parseStatusFilters(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := queue.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func renderJobTable(jobs []api.Job, colorize bool) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.VideoID,
			colorStatus(job.Status, colorize),
			valueOrDash(job.Progress.Stage),
			formatPercent(job.Progress.Percent),
			truncate(valueOrDash(job.Title), 40),
			truncate(valueOrDash(job.ErrorMessage), 50),
		})
	}
	return renderTable(
		[]string{"ID", "Video", "Status", "Stage", "Progress", "Title", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *serviceSet) error {
				job, err := svc.queue.Describe(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", ids[0])
				}
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Job #%d\n", job.ID)
				fmt.Fprintf(out, "  Video:    %s\n", job.VideoID)
				fmt.Fprintf(out, "  Source:   %s (%s)\n", job.Source, job.SourceKind)
				fmt.Fprintf(out, "  Title:    %s\n", valueOrDash(job.Title))
				fmt.Fprintf(out, "  Status:   %s\n", colorStatus(job.Status, colorize))
				fmt.Fprintf(out, "  Progress: %s %s %s\n", valueOrDash(job.Progress.Stage), formatPercent(job.Progress.Percent), job.Progress.Message)
				fmt.Fprintf(out, "  Created:  %s\n", valueOrDash(job.CreatedAt))
				fmt.Fprintf(out, "  Updated:  %s\n", valueOrDash(job.UpdatedAt))
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:    %s\n", job.ErrorMessage)
				}
				if job.NeedsReview {
					fmt.Fprintf(out, "  Review:   %s\n", valueOrDash(job.ReviewReason))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Move failed jobs back to pending (all failed jobs when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *serviceSet) error {
				result, err := svc.queue.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					if result.UpdatedCount == 0 {
						fmt.Fprintln(out, "No failed jobs to retry")
					} else {
						fmt.Fprintf(out, "Retrying %d failed job(s)\n", result.UpdatedCount)
					}
					return nil
				}
				for _, item := range result.Items {
					switch item.Outcome {
					case api.RetryUpdated:
						fmt.Fprintf(out, "Job %d: retrying\n", item.ID)
					case api.RetryNotFound:
						fmt.Fprintf(out, "Job %d: not found\n", item.ID)
					case api.RetryNotFailed:
						fmt.Fprintf(out, "Job %d: not failed (status %s)\n", item.ID, item.PriorStatus)
					}
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove jobs from the queue (video files are kept)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *serviceSet) error {
				result, err := svc.queue.Remove(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range result.Items {
					switch item.Outcome {
					case api.RemoveDeleted:
						fmt.Fprintf(out, "Job %d: removed\n", item.ID)
					case api.RemoveNotFound:
						fmt.Fprintf(out, "Job %d: not found\n", item.ID)
					case api.RemoveProcessing:
						fmt.Fprintf(out, "Job %d: in progress, not removed\n", item.ID)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var all, completed, failed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := clearScope(all, completed, failed)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *serviceSet) error {
				removed, err := svc.queue.Clear(cmd.Context(), scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every job")
	cmd.Flags().BoolVar(&completed, "completed", false, "Remove completed jobs")
	cmd.Flags().BoolVar(&failed, "failed", false, "Remove failed and review jobs")
	return cmd
}

func clearScope(all, completed, failed bool) (api.ClearScope, error) {
	count := 0
	for _, set := range []bool{all, completed, failed} {
		if set {
			count++
		}
	}
	switch {
	case count > 1:
		return "", errors.New("choose only one of --all, --completed, --failed")
	case all:
		return api.ClearAll, nil
	case failed:
		return api.ClearFailed, nil
	default:
		return api.ClearCompleted, nil
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the queue database and summarize job lifecycle counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				summary, db, err := svc.queue.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:       %s\n", db.DBPath)
				fmt.Fprintf(out, "Exists:         %s\n", yesNo(db.DatabaseExists))
				fmt.Fprintf(out, "Readable:       %s\n", yesNo(db.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %d\n", db.SchemaVersion)
				fmt.Fprintf(out, "Jobs table:     %s\n", yesNo(db.TableExists))
				if len(db.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(db.MissingColumns, ", "))
				}
				fmt.Fprintf(out, "Integrity:      %s\n", yesNo(db.IntegrityCheck))
				if db.Error != "" {
					fmt.Fprintf(out, "Error:          %s\n", db.Error)
				}
				fmt.Fprintln(out)
				rows := [][]string{
					{"Total", strconv.Itoa(summary.Total)},
					{"Pending", strconv.Itoa(summary.Pending)},
					{"Processing", strconv.Itoa(summary.Processing)},
					{"Waiting", strconv.Itoa(summary.Waiting)},
					{"Failed", strconv.Itoa(summary.Failed)},
					{"Review", strconv.Itoa(summary.Review)},
					{"Completed", strconv.Itoa(summary.Completed)},
				}
				fmt.Fprint(out, renderTable([]string{"Phase", "Jobs"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
