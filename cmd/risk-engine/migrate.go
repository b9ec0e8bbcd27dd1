package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firesurvey/risk-engine/pkg/db"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, root)
			if err != nil {
				return err
			}
			gdb, err := db.Open(rt.cfg.DBConfig())
			if err != nil {
				return err
			}
			if err := rt.migrate(cmd.Context(), gdb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables on %s\n", len(schemaModels), gdb.Dialector.Name())
			return nil
		},
	}
}
