package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firesurvey/risk-engine/pkg/recommendations"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage recommendation templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active templates in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gdb, err := rt.openDB(ctx)
			if err != nil {
				return err
			}
			lib := recommendations.NewLibrary(gdb, rt.catalog, nil)
			tpls, err := lib.Active(ctx)
			if err != nil {
				return err
			}
			headers := []string{"Name", "Priority", "Modules", "Factors", "Ratings", "Title"}
			return emit(cmd.OutOrStdout(), rt.output, tpls, headers, func() [][]string {
				rows := make([][]string, len(tpls))
				for i, t := range tpls {
					rows[i] = []string{t.Name, strconv.Itoa(t.Priority),
						listCell(t.ModuleKeys), listCell(t.FactorKeys),
						rangeCell(t.RatingMin, t.RatingMax), t.Title}
				}
				return rows
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed [FILE]",
		Short: "Seed the built-in templates and, optionally, templates from FILE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gdb, err := rt.openDB(ctx)
			if err != nil {
				return err
			}
			path := rt.cfg.Recommendations.TemplatesFile
			if len(args) == 1 {
				path = args[0]
			}
			lib := recommendations.NewLibrary(gdb, rt.catalog, nil)
			if err := rt.seedTemplates(ctx, lib, path); err != nil {
				return err
			}
			tpls, err := lib.Active(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d active templates\n", len(tpls))
			return nil
		},
	})
	return cmd
}

func listCell(keys []string) string {
	if len(keys) == 0 {
		return "*"
	}
	return strings.Join(keys, ",")
}

func rangeCell(lo, hi *int) string {
	if lo == nil && hi == nil {
		return "*"
	}
	l, h := "1", "5"
	if lo != nil {
		l = strconv.Itoa(*lo)
	}
	if hi != nil {
		h = strconv.Itoa(*hi)
	}
	return l + "-" + h
}
