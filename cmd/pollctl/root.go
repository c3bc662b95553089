package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vncsmyrnk/pollsite/internal/bootstrap"
	"github.com/vncsmyrnk/pollsite/internal/config"
	"github.com/vncsmyrnk/pollsite/internal/logger"
)

type app struct {
	out io.Writer
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: config.NewViper()}
	// pollctl never issues tokens.
	a.v.SetDefault("jwt_secret", "pollctl")

	root := &cobra.Command{
		Use:           "pollctl",
		Short:         "Administer pollsite questions, users and schema",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.FromViper(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Init(logger.Options{Level: cfg.LogLevel, Format: "console", Writer: os.Stderr, Service: "pollctl"})
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("database", "", "database type: postgres, mysql, sqlite or memory (env DATABASE_TYPE)")
	flags.String("database-url", "", "database DSN (env DATABASE_URL)")
	flags.String("time-zone", "", "zone used for date filters (env TIME_ZONE)")
	flags.String("log-level", "", "log level (env LOG_LEVEL)")
	_ = a.v.BindPFlag("database_type", flags.Lookup("database"))
	_ = a.v.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = a.v.BindPFlag("time_zone", flags.Lookup("time-zone"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newMigrateCmd(a), newQuestionsCmd(a), newUsersCmd(a))
	return root
}

// open connects to the configured database, applying pending migrations.
func (a *app) open(ctx context.Context) (*bootstrap.Repositories, *bootstrap.Services, error) {
	repos, err := bootstrap.OpenRepositories(ctx, a.cfg, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", a.cfg.DatabaseType, err)
	}
	return repos, bootstrap.NewServices(a.cfg, repos), nil
}
