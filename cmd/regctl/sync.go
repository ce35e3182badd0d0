package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
)

type syncOptions struct {
	file string
}

func (a *App) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replace reference data with a master system export",
		Long: `Import the full list of departments, programmes or batch years.

The file holds a JSON array of records. Records missing from the file are
removed, and renamed departments and programmes are propagated to the
regulations, courses and cohort bindings that copy their names.

Examples:
  regctl sync departments --file departments.json
  regctl sync programmes --file programmes.json`,
	}

	cmd.AddCommand(
		a.newSyncSubCmd("departments", func(ctx context.Context, svc *service.Service, data []byte) (*model.Job, error) {
			var req dto.SyncDepartmentsRequest
			if err := json.Unmarshal(data, &req.Departments); err != nil {
				return nil, fmt.Errorf("decode departments: %w", err)
			}
			return svc.Sync.SyncDepartments(ctx, &req, a.actor)
		}),
		a.newSyncSubCmd("programmes", func(ctx context.Context, svc *service.Service, data []byte) (*model.Job, error) {
			var req dto.SyncProgrammesRequest
			if err := json.Unmarshal(data, &req.Programmes); err != nil {
				return nil, fmt.Errorf("decode programmes: %w", err)
			}
			return svc.Sync.SyncProgrammes(ctx, &req, a.actor)
		}),
		a.newSyncSubCmd("batch-years", func(ctx context.Context, svc *service.Service, data []byte) (*model.Job, error) {
			var req dto.SyncBatchYearsRequest
			if err := json.Unmarshal(data, &req.BatchYears); err != nil {
				return nil, fmt.Errorf("decode batch years: %w", err)
			}
			return svc.Sync.SyncBatchYears(ctx, &req, a.actor)
		}),
	)
	return cmd
}

type syncFunc func(ctx context.Context, svc *service.Service, data []byte) (*model.Job, error)

func (a *App) newSyncSubCmd(name string, run syncFunc) *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   name,
		Short: "Sync " + name + " from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(opts.file)
			if err != nil {
				return fmt.Errorf("read %s: %w", opts.file, err)
			}

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

			job, err := run(ctx, svc, data)
			if err != nil {
				return err
			}
			return waitJob(ctx, a.stdout, svc, job)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON file with the full record list")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
