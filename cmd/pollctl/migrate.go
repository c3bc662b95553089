package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/sqlrepo"
	"github.com/vncsmyrnk/pollsite/internal/config"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseType == config.DatabaseMemory {
				fmt.Fprintln(a.out, "memory database has no schema")
				return nil
			}

			dialect, err := sqlrepo.ParseDialect(a.cfg.DatabaseType)
			if err != nil {
				return err
			}
			db, err := sqlrepo.Open(cmd.Context(), dialect, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := sqlrepo.Migrate(cmd.Context(), db, dialect)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(a.out, "schema is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(a.out, "applied %s\n", version)
			}
			return nil
		},
	}
}
