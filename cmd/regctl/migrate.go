package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/database"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mongodb"
)

type migrateOptions struct {
	indexes bool
}

func (a *App) newMigrateCmd() *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply audit schema migrations",
		Long: `Apply pending PostgreSQL migrations of the audit log.

With --indexes the document store indexes are created as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := database.RunMigrations(sqlDB, logger); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "audit schema up to date")

			if !opts.indexes {
				return nil
			}
			ctx := cmd.Context()
			mc, err := mongodb.NewClient(ctx, &cfg.Mongo, logger)
			if err != nil {
				return err
			}
			defer mc.Close(ctx)
			if err := mc.CreateIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "indexes created")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.indexes, "indexes", false, "Also create the document store indexes")
	return cmd
}
