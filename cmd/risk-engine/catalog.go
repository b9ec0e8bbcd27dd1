package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firesurvey/risk-engine/pkg/weighting"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the module catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			entries := rt.catalog.Entries()
			headers := []string{"Key", "Name", "Kind", "Order", "Doc Types", "Hidden"}
			return emit(cmd.OutOrStdout(), rt.output, map[string]any{
				"version": rt.catalog.Version(),
				"entries": entries,
			}, headers, func() [][]string {
				rows := make([][]string, len(entries))
				for i, e := range entries {
					order := "-"
					if e.Order != nil {
						order = strconv.Itoa(*e.Order)
					}
					rows[i] = []string{e.Key, e.DisplayName, string(e.Kind), order,
						strings.Join(e.DocTypes, ","), strconv.FormatBool(e.Hidden)}
				}
				return rows
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "modules DOC_TYPE",
		Short: "List the canonical module keys of a document type in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			keys := rt.catalog.ModuleKeysForDocType(args[0])
			return emit(cmd.OutOrStdout(), rt.output, keys, []string{"Position", "Key"}, func() [][]string {
				rows := make([][]string, len(keys))
				for i, k := range keys {
					rows[i] = []string{strconv.Itoa(i + 1), k}
				}
				return rows
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve KEY...",
		Short: "Resolve legacy module keys to canonical keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			resolved := make(map[string]string, len(args))
			for _, k := range args {
				resolved[k] = rt.catalog.ResolveCanonicalKey(k)
			}
			return emit(cmd.OutOrStdout(), rt.output, resolved, []string{"Key", "Canonical", "Known"}, func() [][]string {
				rows := make([][]string, len(args))
				for i, k := range args {
					c := resolved[k]
					rows[i] = []string{k, c, strconv.FormatBool(rt.catalog.Has(c))}
				}
				return rows
			})
		},
	})
	return cmd
}

type factorsOptions struct {
	industry  string
	occupancy string
}

type factorRow struct {
	Key     weighting.Factor `json:"key"`
	Label   string           `json:"label"`
	Weight  float64          `json:"weight"`
	Enabled bool             `json:"enabled"`
	Global  bool             `json:"global"`
}

func newFactorsCmd(root *rootOptions) *cobra.Command {
	opts := &factorsOptions{}
	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Show factor weights and relevance for an industry and occupancy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			infos := weighting.Factors()
			items := make([]factorRow, len(infos))
			for i, f := range infos {
				items[i] = factorRow{
					Key:     f.Key,
					Label:   f.Label,
					Weight:  rt.tables.FactorWeight(opts.industry, f.Key),
					Enabled: rt.tables.IsFactorEnabled(opts.occupancy, f.Key),
					Global:  f.Key.IsGlobal(),
				}
			}
			headers := []string{"Factor", "Label", "Weight", "Enabled", "Global"}
			return emit(cmd.OutOrStdout(), rt.output, items, headers, func() [][]string {
				rows := make([][]string, len(items))
				for i, f := range items {
					rows[i] = []string{string(f.Key), f.Label,
						strconv.FormatFloat(f.Weight, 'g', -1, 64),
						strconv.FormatBool(f.Enabled), strconv.FormatBool(f.Global)}
				}
				return rows
			})
		},
	}
	cmd.Flags().StringVar(&opts.industry, "industry", "", "Industry key for weights")
	cmd.Flags().StringVar(&opts.occupancy, "occupancy", "", "Occupancy key for relevance")
	return cmd
}
