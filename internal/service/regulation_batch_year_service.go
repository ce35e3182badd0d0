package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/txn"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/keylock"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
)

// ── batch year errors ──

var (
	ErrBindingRegulationNotApproved = apperrors.Denied("Batches can only be assigned to an approved regulation.")
	ErrBindingSemesterNotFrozen     = apperrors.Denied("The semester must be frozen before batches are assigned to it.")
	ErrBindingSemesterOutOfRange    = apperrors.Validation("Semester is beyond the programme duration.")
	ErrBatchYearNotFound            = apperrors.NotFound("One or more batch years were not found.")
	ErrBatchAlreadyAssigned         = apperrors.Denied("One or more batches are already assigned for this semester.")
	ErrBatchNotAssigned             = apperrors.Denied("One or more batches are not assigned for this semester yet.")
)

// RegulationBatchYearService binds cohorts to programme schemes semester by
// semester.
type RegulationBatchYearService interface {
	PendingProgrammes(ctx context.Context) ([]model.PendingProgramme, error)
	Assign(ctx context.Context, req *dto.BindBatchRequest, actor model.Actor) ([]model.RegulationBatchYear, error)
	Reassign(ctx context.Context, req *dto.BindBatchRequest, actor model.Actor) (int64, error)
	// MoveToNextSemester binds every pending cohort to the scheme it already
	// follows, as a background job.
	MoveToNextSemester(ctx context.Context, actor model.Actor) (*model.Job, error)
	List(ctx context.Context, f model.RegulationBatchYearFilter) ([]model.RegulationBatchYear, int64, error)
}

type regulationBatchYearService struct {
	repo         *repository.Repository
	orch         *txn.Orchestrator
	locks        *keylock.Registry
	activity     Activity
	runner       *JobRunner
	notification NotificationService
	logger       *zap.Logger
}

func NewRegulationBatchYearService(d Deps, runner *JobRunner, notification NotificationService) RegulationBatchYearService {
	return &regulationBatchYearService{
		repo:         d.Repo,
		orch:         d.Orch,
		locks:        d.Locks,
		activity:     d.Activity,
		runner:       runner,
		notification: notification,
		logger:       d.Logger,
	}
}

// batchKey serializes binding changes per programme.
func batchKey(programmeID string) string {
	return "batch-years:" + programmeID
}

// ────────────────────── PendingProgrammes ──────────────────────

func (s *regulationBatchYearService) PendingProgrammes(ctx context.Context) ([]model.PendingProgramme, error) {
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.RegulationBatchYear.PendingProgrammes(ctx, cal.ActiveBatchYear, cal.AcademicSemester)
	if err != nil {
		s.logger.Error("failed to compute pending programmes", zap.Error(err))
		return nil, err
	}
	return pending, nil
}

// ────────────────────── Assign ──────────────────────

func (s *regulationBatchYearService) Assign(ctx context.Context, req *dto.BindBatchRequest, actor model.Actor) ([]model.RegulationBatchYear, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	target, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}

	var recs []model.RegulationBatchYear
	err = s.locks.Do(batchKey(target.scheme.Programme.ID), func() error {
		bound, err := s.repo.RegulationBatchYear.Bound(ctx, req.BatchYearIDs, req.Semester)
		if err != nil {
			s.logger.Error("failed to check batch bindings", zap.Error(err))
			return err
		}
		if len(bound) > 0 {
			return ErrBatchAlreadyAssigned
		}

		recs = bindings(target.reg, target.scheme, target.batches, req.Semester, actor, time.Now())
		_, err = s.orch.Execute(ctx,
			txn.Create("regulationBatchYears", func(ctx context.Context) ([]string, error) {
				return s.repo.RegulationBatchYear.CreateMany(ctx, recs)
			}).Required(),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityBatchYear,
		EntityID: target.scheme.ID,
		Action:   "assign",
		Message:  fmt.Sprintf("Assigned %d batches to semester %d", len(recs), req.Semester),
	})
	return recs, nil
}

// ────────────────────── Reassign ──────────────────────

func (s *regulationBatchYearService) Reassign(ctx context.Context, req *dto.BindBatchRequest, actor model.Actor) (int64, error) {
	if err := Validate(req); err != nil {
		return 0, err
	}
	target, err := s.target(ctx, req)
	if err != nil {
		return 0, err
	}
	ids := pipeline.Unique(req.BatchYearIDs)

	var modified int64
	err = s.locks.Do(batchKey(target.scheme.Programme.ID), func() error {
		bound, err := s.repo.RegulationBatchYear.Bound(ctx, ids, req.Semester)
		if err != nil {
			s.logger.Error("failed to check batch bindings", zap.Error(err))
			return err
		}
		if missing, _ := pipeline.StringDifference(ids, bound); len(missing) > 0 {
			return ErrBatchNotAssigned
		}

		res, err := s.orch.Execute(ctx,
			txn.UpdateMany("regulationBatchYears", func(ctx context.Context) (int64, error) {
				return s.repo.RegulationBatchYear.Rebind(ctx, ids, req.Semester, target.reg.Info(), target.scheme.ID, actor.ID)
			}).Required(),
		)
		modified = res.Modified
		return err
	})
	if err != nil {
		return 0, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityBatchYear,
		EntityID: target.scheme.ID,
		Action:   "reassign",
		Message:  fmt.Sprintf("Reassigned %d batches for semester %d", modified, req.Semester),
	})
	return modified, nil
}

// ────────────────────── MoveToNextSemester ──────────────────────

func (s *regulationBatchYearService) MoveToNextSemester(ctx context.Context, actor model.Actor) (*model.Job, error) {
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	return s.runner.Start(ctx, model.JobMoveToNextSemester, actor, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		return s.move(ctx, cal, actor, p)
	})
}

func (s *regulationBatchYearService) move(ctx context.Context, cal *model.AcademicCalendar, actor model.Actor, p *Progress) (model.JobSummary, error) {
	var summary model.JobSummary

	pending, err := s.repo.RegulationBatchYear.PendingProgrammes(ctx, cal.ActiveBatchYear, cal.AcademicSemester)
	if err != nil {
		return summary, fmt.Errorf("pending programmes: %w", err)
	}
	p.SetRecordCount(ctx, len(pending))

	regs := make(map[string]*model.Regulation)
	for i, group := range pending {
		reg, ok := regs[group.RegulationID]
		if !ok {
			reg, err = s.repo.Regulation.Get(ctx, group.RegulationID)
			if err != nil {
				return summary, fmt.Errorf("regulation %s: %w", group.RegulationID, err)
			}
			regs[group.RegulationID] = reg
		}

		err := s.locks.Do(batchKey(group.ProgrammeID), func() error {
			// another assignment may have landed since the pipeline ran
			bound, err := s.repo.RegulationBatchYear.Bound(ctx, group.BatchYearIDs, group.Semester)
			if err != nil {
				return err
			}
			ids, _ := pipeline.StringDifference(group.BatchYearIDs, bound)
			if len(ids) == 0 {
				return nil
			}
			batches, err := s.repo.BatchYear.FindByIDs(ctx, ids)
			if err != nil {
				return err
			}

			scheme := &model.ProgrammeRegulation{
				ID:           group.PrgmRegulationID,
				RegulationID: group.RegulationID,
				Programme:    group.Programme,
				Department:   group.Department,
			}
			recs := bindings(reg, scheme, batches, group.Semester, actor, time.Now())
			res, err := s.orch.Execute(ctx,
				txn.Create("regulationBatchYears", func(ctx context.Context) ([]string, error) {
					return s.repo.RegulationBatchYear.CreateMany(ctx, recs)
				}),
			)
			if err != nil {
				return err
			}
			summary.Inserted += int64(len(res.InsertedIDs))
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("programme %s batch %d: %w", group.ProgrammeID, group.BatchYear, err)
		}
		p.Done(ctx, i+1)
	}

	if summary.Inserted > 0 && actor.Email != "" {
		_, err := s.notification.Notify(ctx, model.Notification{
			Recipients: []string{actor.Email},
			Template:   mail.TemplateSemesterMoved,
			Params:     map[string]string{"Count": strconv.FormatInt(summary.Inserted, 10)},
		}, actor)
		if err != nil {
			s.logger.Error("failed to queue rollover notification", zap.Error(err))
		}
	}
	return summary, nil
}

// ────────────────────── List ──────────────────────

func (s *regulationBatchYearService) List(ctx context.Context, f model.RegulationBatchYearFilter) ([]model.RegulationBatchYear, int64, error) {
	recs, total, err := s.repo.RegulationBatchYear.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list batch bindings", zap.Error(err))
		return nil, 0, err
	}
	return recs, total, nil
}

// ── helpers ──

type bindTarget struct {
	reg     *model.Regulation
	scheme  *model.ProgrammeRegulation
	batches []model.BatchYear
}

// target loads and checks everything a binding request refers to.
func (s *regulationBatchYearService) target(ctx context.Context, req *dto.BindBatchRequest) (*bindTarget, error) {
	scheme, err := s.repo.ProgrammeRegulation.Get(ctx, req.PrgmRegulationID)
	if err != nil {
		err = notFoundOr(err, ErrProgrammeRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load programme regulation", zap.String("id", req.PrgmRegulationID), zap.Error(err))
		}
		return nil, err
	}
	reg, err := s.repo.Regulation.Get(ctx, scheme.RegulationID)
	if err != nil {
		err = notFoundOr(err, ErrRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load regulation", zap.String("id", scheme.RegulationID), zap.Error(err))
		}
		return nil, err
	}
	if reg.Status != workflow.Approved {
		return nil, ErrBindingRegulationNotApproved
	}
	if req.Semester > 2*scheme.Programme.Duration {
		return nil, ErrBindingSemesterOutOfRange
	}
	if !scheme.IsFrozen(req.Semester) {
		return nil, ErrBindingSemesterNotFrozen
	}

	ids := pipeline.Unique(req.BatchYearIDs)
	batches, err := s.repo.BatchYear.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load batch years", zap.Error(err))
		return nil, err
	}
	if len(batches) != len(ids) {
		return nil, ErrBatchYearNotFound
	}
	var msgs []string
	for _, b := range batches {
		if b.Programme.ID != scheme.Programme.ID {
			msgs = append(msgs, fmt.Sprintf("Batch %d %s does not belong to %s.", b.Year, b.SectionName, scheme.Programme.Name))
		}
	}
	if len(msgs) > 0 {
		return nil, apperrors.MultiErr(msgs)
	}
	return &bindTarget{reg: reg, scheme: scheme, batches: batches}, nil
}

func (s *regulationBatchYearService) calendar(ctx context.Context) (*model.AcademicCalendar, error) {
	cal, err := s.repo.Settings.GetCalendar(ctx)
	if err != nil {
		err = notFoundOr(err, ErrCalendarNotConfigured)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load academic calendar", zap.Error(err))
		}
		return nil, err
	}
	return cal, nil
}

func bindings(reg *model.Regulation, scheme *model.ProgrammeRegulation, batches []model.BatchYear, semester int, actor model.Actor, now time.Time) []model.RegulationBatchYear {
	recs := make([]model.RegulationBatchYear, 0, len(batches))
	for _, b := range batches {
		rec := model.RegulationBatchYear{
			ID:               uuid.NewString(),
			BatchYearID:      b.ID,
			Regulation:       reg.Info(),
			Programme:        scheme.Programme,
			Department:       scheme.Department,
			PrgmRegulationID: scheme.ID,
			Semester:         semester,
			BatchYear:        b.Year,
			SectionName:      b.SectionName,
		}
		rec.Stamp(actor, now)
		recs = append(recs, rec)
	}
	return recs
}
