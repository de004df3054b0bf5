package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/classifier"
	"highlighter/internal/highlighting"
	"highlighter/internal/highlights"
	"highlighter/internal/presets"
)

func newHighlightsCommand(ctx *commandContext) *cobra.Command {
	highlightsCmd := &cobra.Command{
		Use:   "highlights",
		Short: "Show, rebuild, or compute highlight reports",
	}

	highlightsCmd.AddCommand(newHighlightsShowCommand(ctx))
	highlightsCmd.AddCommand(newHighlightsRegenerateCommand(ctx))
	highlightsCmd.AddCommand(newHighlightsAnalyzeCommand(ctx))

	return highlightsCmd
}

func newHighlightsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <video-id>",
		Short: "Print the stored highlight report for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				report, err := svc.videos.Highlights(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printReport(cmd, report, jsonOutput)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHighlightsRegenerateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var presetName string
	cmd := &cobra.Command{
		Use:   "regenerate <video-id>",
		Short: "Rebuild a video's highlights from its stored classifier scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *serviceSet) error {
				cfg := svc.cfg
				if name := strings.TrimSpace(presetName); name != "" {
					override := *cfg
					override.Highlights.Preset = name
					cfg = &override
				}
				report, err := highlighting.NewHighlighter(cfg, svc.lib, svc.logger).Generate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printReport(cmd, report, jsonOutput)
			})
		},
	}
	cmd.Flags().StringVarP(&presetName, "preset", "p", "", "Preset to use instead of highlights.preset")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHighlightsAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var presetName string
	var duration float64
	var includePeaks bool
	cmd := &cobra.Command{
		Use:   "analyze <scores-dir>",
		Short: "Compute highlights for a directory of classifier scores without touching the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if duration < 0 {
				return errors.New("--duration must be >= 0")
			}
			m, err := classifier.LoadDir(args[0])
			if err != nil {
				return err
			}
			catalog, err := presets.Load(cfg.Highlights.PresetsFile)
			if err != nil {
				return err
			}
			name := cfg.Highlights.Preset
			if strings.TrimSpace(presetName) != "" {
				name = presetName
			}
			sel, err := catalog.Resolve(name, cfg)
			if err != nil {
				return err
			}
			peaks := cfg.Highlights.IncludePeaks
			if cmd.Flags().Changed("peaks") {
				peaks = includePeaks
			}
			report, err := highlights.BuildReport(m, sel.ReportOptions(duration, peaks))
			if err != nil {
				return err
			}
			return printReport(cmd, report, jsonOutput)
		},
	}
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Recording length in seconds, used to convert frames to clock times")
	cmd.Flags().StringVarP(&presetName, "preset", "p", "", "Preset to use instead of highlights.preset")
	cmd.Flags().BoolVar(&includePeaks, "peaks", false, "Include tiered peak segments")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report highlights.Report, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, report)
	}
	out := cmd.OutOrStdout()
	writeReport(out, report, shouldColorize(out))
	return nil
}

func writeReport(out io.Writer, report highlights.Report, colorize bool) {
	fmt.Fprintf(out, "%d frames", report.FrameCount)
	if report.DurationSeconds > 0 {
		fmt.Fprintf(out, " over %s (%.3fs per frame)", highlights.FormatClock(report.DurationSeconds), report.SecondsPerFrame)
	}
	fmt.Fprintln(out)

	for _, c := range report.Categories {
		fmt.Fprintln(out)
		fmt.Fprint(out, sectionHeader(c.Category.Name, colorize))
		if c.Category.Description != "" {
			fmt.Fprintln(out, c.Category.Description)
		}
		if len(c.Segments) == 0 {
			fmt.Fprintln(out, "No segments")
			continue
		}
		rows := make([][]string, 0, len(c.Segments))
		for i, seg := range c.Segments {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				frameRange(seg.StartInd, seg.Length),
				spanLabel(seg.Span),
				spanLabel(seg.Playback),
				strconv.FormatFloat(seg.Score, 'f', 3, 64),
			})
		}
		fmt.Fprint(out, renderTable(
			[]string{"#", "Frames", "Time", "Playback", "Score"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	if len(report.Peaks) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, sectionHeader("peaks", colorize))
	rows := make([][]string, 0, len(report.Peaks))
	for _, p := range report.Peaks {
		tier := "1"
		if p.Tier2 {
			tier = "2"
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Part + 1),
			tier,
			frameRange(p.StartAudioFrameInd, p.DurationInAudioFrames),
			strconv.Itoa(p.PeakAudioFrameInd),
			spanLabel(p.Span),
			strconv.FormatFloat(p.PeakScore, 'f', 3, 64),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"Part", "Tier", "Frames", "Peak", "Time", "Score"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignRight},
	))
}

func frameRange(start, length int) string {
	return fmt.Sprintf("%d-%d", start, start+length)
}

func spanLabel(span *highlights.TimeSpan) string {
	if span == nil {
		return "-"
	}
	return span.Label()
}
