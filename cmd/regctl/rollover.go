package main

import (
	"github.com/spf13/cobra"
)

func (a *App) newRolloverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Move every pending cohort to its next semester",
		Long: `Run the move-to-next-semester job once and wait for it.

Cohorts of the active batch years are bound to the scheme they already
follow for the semester the academic calendar points at. Cohorts that are
already bound are skipped, so the command is safe to repeat.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			svc, closeFn, err := a.openServices(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			job, err := svc.BatchYear.MoveToNextSemester(ctx, a.actor)
			if err != nil {
				return err
			}
			return waitJob(ctx, a.stdout, svc, job)
		},
	}
}
