package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/highlights"
	"highlighter/internal/presets"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the highlight presets available to highlights.preset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := presets.Load(cfg.Highlights.PresetsFile)
			if err != nil {
				return err
			}
			rows := make([][]string, 0)
			for _, name := range catalog.Names() {
				sel, err := catalog.Resolve(name, cfg)
				if err != nil {
					rows = append(rows, []string{name, "", "", "", "invalid: " + err.Error()})
					continue
				}
				active := ""
				if name == cfg.Highlights.Preset {
					active = "*"
				}
				description := sel.Description
				if name == presets.DefaultName {
					description = "Highlights section of the config file"
				}
				rows = append(rows, []string{
					name,
					active,
					strconv.Itoa(len(sel.Categories)),
					strconv.Itoa(sel.Tiered.PartsCount),
					valueOrDash(description),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Preset", "Active", "Categories", "Parts", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			reducers := make([]string, 0, 4)
			for _, kind := range highlights.ReducerKinds() {
				reducers = append(reducers, string(kind))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category reducers: %s\n", strings.Join(reducers, ", "))
			return nil
		},
	}
}
