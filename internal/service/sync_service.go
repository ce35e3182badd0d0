package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/txn"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
)

// SyncService replaces reference data with the master system's lists.
//
// Each sync runs as a background job. The upsert, the removal of stale
// records and the rewrite of every denormalized copy commit together.
type SyncService interface {
	SyncDepartments(ctx context.Context, req *dto.SyncDepartmentsRequest, actor model.Actor) (*model.Job, error)
	SyncProgrammes(ctx context.Context, req *dto.SyncProgrammesRequest, actor model.Actor) (*model.Job, error)
	SyncBatchYears(ctx context.Context, req *dto.SyncBatchYearsRequest, actor model.Actor) (*model.Job, error)
}

type syncService struct {
	repo   *repository.Repository
	orch   *txn.Orchestrator
	runner *JobRunner
	logger *zap.Logger
}

func NewSyncService(d Deps, runner *JobRunner) SyncService {
	return &syncService{repo: d.Repo, orch: d.Orch, runner: runner, logger: d.Logger}
}

// ────────────────────── SyncDepartments ──────────────────────

func (s *syncService) SyncDepartments(ctx context.Context, req *dto.SyncDepartmentsRequest, actor model.Actor) (*model.Job, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := uniqueRecords(req.Departments, func(d dto.DepartmentRecord) string { return d.ID }, "department"); err != nil {
		return nil, err
	}

	now := time.Now()
	departments := make([]model.Department, len(req.Departments))
	for i, r := range req.Departments {
		departments[i] = model.Department{
			ID:        r.ID,
			Name:      strings.TrimSpace(r.Name),
			Category:  r.Category,
			ShortName: r.ShortName,
		}
		departments[i].Stamp(actor, now)
	}

	return s.runner.Start(ctx, model.JobSyncDepartments, actor, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		p.SetRecordCount(ctx, len(departments))

		var counts repository.SyncCounts
		_, err := s.orch.Execute(ctx,
			txn.UpdateMany("departments", func(ctx context.Context) (int64, error) {
				var err error
				counts, err = s.repo.Department.Sync(ctx, departments)
				return counts.Inserted + counts.Modified, err
			}),
			s.propagate("department", len(departments), func(ctx context.Context, i int) (int64, error) {
				info := departments[i].Info()
				var total int64
				for _, fn := range []func(context.Context, model.DepartmentInfo) (int64, error){
					s.repo.Programme.PropagateDepartment,
					s.repo.ProgrammeRegulation.PropagateDepartment,
					s.repo.Course.PropagateDepartment,
					s.repo.RegulationBatchYear.PropagateDepartment,
					s.repo.BatchYear.PropagateDepartment,
				} {
					n, err := fn(ctx, info)
					if err != nil {
						return total, err
					}
					total += n
				}
				return total, nil
			}),
		)
		if err != nil {
			return model.JobSummary{}, err
		}
		p.Done(ctx, len(departments))
		return summaryOf(counts), nil
	})
}

// ────────────────────── SyncProgrammes ──────────────────────

func (s *syncService) SyncProgrammes(ctx context.Context, req *dto.SyncProgrammesRequest, actor model.Actor) (*model.Job, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := uniqueRecords(req.Programmes, func(p dto.ProgrammeRecord) string { return p.ID }, "programme"); err != nil {
		return nil, err
	}

	departments, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]model.Department, len(departments))
	for _, d := range departments {
		byID[d.ID] = d
	}

	now := time.Now()
	var msgs []string
	programmes := make([]model.Programme, len(req.Programmes))
	for i, r := range req.Programmes {
		dept, ok := byID[r.DepartmentID]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("Department %s of programme %s not found.", r.DepartmentID, r.Name))
			continue
		}
		programmes[i] = model.Programme{
			ID:         r.ID,
			Category:   r.Category,
			Name:       strings.TrimSpace(r.Name),
			Type:       r.Type,
			Mode:       r.Mode,
			Duration:   r.Duration,
			Stream:     r.Stream,
			ShortName:  r.ShortName,
			Department: dept.Info(),
		}
		programmes[i].Stamp(actor, now)
	}
	if len(msgs) > 0 {
		return nil, apperrors.MultiErr(msgs)
	}

	return s.runner.Start(ctx, model.JobSyncProgrammes, actor, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		p.SetRecordCount(ctx, len(programmes))

		var counts repository.SyncCounts
		_, err := s.orch.Execute(ctx,
			txn.UpdateMany("programmes", func(ctx context.Context) (int64, error) {
				var err error
				counts, err = s.repo.Programme.Sync(ctx, programmes)
				return counts.Inserted + counts.Modified, err
			}),
			s.propagate("programme", len(programmes), func(ctx context.Context, i int) (int64, error) {
				info := programmes[i].Info()
				var total int64
				for _, fn := range []func(context.Context, model.ProgrammeInfo) (int64, error){
					s.repo.ProgrammeRegulation.PropagateProgramme,
					s.repo.Course.PropagateProgramme,
					s.repo.RegulationBatchYear.PropagateProgramme,
					s.repo.BatchYear.PropagateProgramme,
				} {
					n, err := fn(ctx, info)
					if err != nil {
						return total, err
					}
					total += n
				}
				return total, nil
			}),
		)
		if err != nil {
			return model.JobSummary{}, err
		}
		p.Done(ctx, len(programmes))
		return summaryOf(counts), nil
	})
}

// ────────────────────── SyncBatchYears ──────────────────────

func (s *syncService) SyncBatchYears(ctx context.Context, req *dto.SyncBatchYearsRequest, actor model.Actor) (*model.Job, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := uniqueRecords(req.BatchYears, func(b dto.BatchYearRecord) string { return b.ID }, "batch year"); err != nil {
		return nil, err
	}

	programmes, err := s.repo.Programme.List(ctx)
	if err != nil {
		s.logger.Error("failed to list programmes", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]model.Programme, len(programmes))
	for _, p := range programmes {
		byID[p.ID] = p
	}

	now := time.Now()
	var msgs []string
	batches := make([]model.BatchYear, len(req.BatchYears))
	for i, r := range req.BatchYears {
		prgm, ok := byID[r.ProgrammeID]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("Programme %s of batch %d %s not found.", r.ProgrammeID, r.Year, r.SectionName))
			continue
		}
		batches[i] = model.BatchYear{
			ID:          r.ID,
			Year:        r.Year,
			Programme:   prgm.Info(),
			Department:  prgm.Department,
			SectionName: strings.TrimSpace(r.SectionName),
		}
		batches[i].Stamp(actor, now)
	}
	if len(msgs) > 0 {
		return nil, apperrors.MultiErr(msgs)
	}

	return s.runner.Start(ctx, model.JobSyncBatchYears, actor, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		p.SetRecordCount(ctx, len(batches))

		var counts repository.SyncCounts
		_, err := s.orch.Execute(ctx,
			txn.UpdateMany("batchYears", func(ctx context.Context) (int64, error) {
				var err error
				counts, err = s.repo.BatchYear.Sync(ctx, batches)
				return counts.Inserted + counts.Modified, err
			}),
		)
		if err != nil {
			return model.JobSummary{}, err
		}
		p.Done(ctx, len(batches))
		return summaryOf(counts), nil
	})
}

// ── helpers ──

// propagate rewrites the denormalized copies of n records, one at a time.
func (s *syncService) propagate(name string, n int, fn func(ctx context.Context, i int) (int64, error)) txn.Op {
	return txn.UpdateMany(name+"Propagation", func(ctx context.Context) (int64, error) {
		var total int64
		for i := 0; i < n; i++ {
			m, err := fn(ctx, i)
			if err != nil {
				return total, err
			}
			total += m
		}
		return total, nil
	})
}

func uniqueRecords[T any](records []T, id func(T) string, label string) error {
	seen := make(map[string]struct{}, len(records))
	var msgs []string
	for _, r := range records {
		k := id(r)
		if _, dup := seen[k]; dup {
			msgs = append(msgs, fmt.Sprintf("Duplicate %s id %s.", label, k))
			continue
		}
		seen[k] = struct{}{}
	}
	if len(msgs) > 0 {
		return apperrors.MultiErr(msgs)
	}
	return nil
}

func summaryOf(c repository.SyncCounts) model.JobSummary {
	return model.JobSummary{
		Inserted: c.Inserted,
		Modified: c.Modified,
		Matched:  c.Matched,
		Removed:  c.Removed,
	}
}
