package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firesurvey/risk-engine/pkg/engine"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/survey"
)

type scoreOptions struct {
	persist     bool
	concurrency int
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score FILE...",
		Short: "Evaluate survey documents from JSON or YAML files",
		Long: `score evaluates every document in the given files and prints the
evaluations. A file holds a single document or a list of documents.

Without --persist the evaluation runs offline and the summary is derived
from the triggers found. With --persist recommendations are ensured in the
configured database and the summary reflects the stored open actions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, root, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Store recommendations in the configured database")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", engine.DefaultConcurrency, "Documents evaluated in parallel")
	return cmd
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions, files []string) error {
	rt, err := loadRuntime(cmd, root)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var docs []survey.Document
	for _, path := range files {
		parsed, err := survey.ParseDocumentsFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, parsed...)
	}

	svcOpts := []engine.Option{
		engine.WithLogger(rt.logger),
		engine.WithConcurrency(opts.concurrency),
	}
	if opts.persist {
		gdb, err := rt.openDB(ctx)
		if err != nil {
			return err
		}
		store, pipeline, err := rt.persistence(ctx, gdb)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, engine.WithPersistence(pipeline, store))
	}
	svc := engine.NewService(rt.catalog, rt.tables, svcOpts...)

	evals, err := svc.EvaluateSurvey(ctx, docs)
	if err != nil {
		return err
	}

	headers := []string{"Document", "Type", "Overall", "Site", "Outcome", "P1", "P2", "P3", "P4", "Warnings"}
	return emit(cmd.OutOrStdout(), rt.output, evals, headers, func() [][]string {
		rows := make([][]string, len(evals))
		for i, ev := range evals {
			c := ev.Summary.Counts
			rows[i] = []string{
				ev.DocumentID,
				ev.DocumentType,
				ratingCell(ev.Overall, ev.OverallScored),
				siteCell(ev.Site),
				string(ev.Summary.ComputedOutcome),
				strconv.Itoa(c.P1),
				strconv.Itoa(c.P2),
				strconv.Itoa(c.P3),
				strconv.Itoa(c.P4),
				strconv.Itoa(len(ev.Warnings)),
			}
		}
		return rows
	})
}

func ratingCell(r scoring.Rating, scored bool) string {
	if !scored {
		return "-"
	}
	return r.String()
}

func siteCell(site *scoring.SiteResult) string {
	if site == nil || !site.Scored {
		return "-"
	}
	if site.Capped {
		return fmt.Sprintf("%s (capped from %s)", site.Score, site.Uncapped)
	}
	return site.Score.String()
}
