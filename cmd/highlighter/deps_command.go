package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"highlighter/internal/deps"
	"highlighter/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external programs and directories the daemon needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)
			if jsonOutput {
				return writeJSON(cmd, struct {
					Dependencies []deps.Status      `json:"dependencies"`
					Checks       []preflight.Result `json:"checks"`
				}{statuses, checks})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			depRows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				depRows = append(depRows, []string{
					s.Name,
					availability(s.Available, s.Optional, colorize),
					valueOrDash(s.Command),
					valueOrDash(s.Detail),
				})
			}
			fmt.Fprint(out, renderTable([]string{"Dependency", "Status", "Command", "Detail"}, depRows, nil))

			checkRows := make([][]string, 0, len(checks))
			for _, r := range checks {
				checkRows = append(checkRows, []string{
					r.Name,
					availability(r.Passed, r.Advisory, colorize),
					valueOrDash(r.Detail),
				})
			}
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			missing := deps.Missing(statuses)
			blocking := preflight.Blocking(checks)
			if len(missing) > 0 || len(blocking) > 0 {
				return fmt.Errorf("%d required dependencies missing, %d checks failed", len(missing), len(blocking))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// availability labels a check; soft failures are warnings.
func availability(ok, soft, colorize bool) string {
	label, color := "ok", ansiGreen
	switch {
	case ok:
	case soft:
		label, color = "warn", ansiYellow
	default:
		label, color = "missing", ansiRed
	}
	if !colorize {
		return label
	}
	return color + label + ansiReset
}
