package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
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
)

// ── regulation errors ──

var (
	ErrRegulationNotFound     = apperrors.NotFound("Regulation not found.")
	ErrRegulationNotDraft     = apperrors.Denied("Only draft regulations can be deleted.")
	ErrRegulationInReview     = apperrors.Denied("Regulation cannot be edited while it is waiting for approval.")
	ErrRegulationFieldsLocked = apperrors.Denied("Title, year and attachments cannot be changed once the regulation is approved.")
	ErrProgrammeRemovalLocked = apperrors.Denied("Programmes cannot be removed from an approved regulation.")
)

// RegulationService regulation lifecycle.
type RegulationService interface {
	Create(ctx context.Context, req *dto.CreateRegulationRequest, actor model.Actor) (*model.Regulation, error)
	Update(ctx context.Context, id string, req *dto.UpdateRegulationRequest, actor model.Actor) (*model.Regulation, error)
	Delete(ctx context.Context, id string, actor model.Actor) error
	Clone(ctx context.Context, id string, req *dto.CloneRegulationRequest, actor model.Actor) (*model.Regulation, error)
	Get(ctx context.Context, id string) (*dto.RegulationDetail, error)
	List(ctx context.Context, f model.RegulationFilter) ([]model.Regulation, int64, error)
	ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.Regulation, error)
	AllowedTransitions(ctx context.Context, id string, roles workflow.RoleSet) ([]workflow.StatusOption, error)
}

type regulationService struct {
	repo     *repository.Repository
	orch     *txn.Orchestrator
	locks    *keylock.Registry
	activity Activity
	logger   *zap.Logger
}

func NewRegulationService(d Deps) RegulationService {
	return &regulationService{repo: d.Repo, orch: d.Orch, locks: d.Locks, activity: d.Activity, logger: d.Logger}
}

// versionKey serializes version computation per year.
func versionKey(year int) string {
	return "regulation-year:" + strconv.Itoa(year)
}

// ────────────────────── Create ──────────────────────

func (s *regulationService) Create(ctx context.Context, req *dto.CreateRegulationRequest, actor model.Actor) (*model.Regulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	programmeIDs := pipeline.Unique(req.ProgrammeIDs)
	programmes, err := s.loadProgrammes(ctx, programmeIDs)
	if err != nil {
		return nil, err
	}

	var reg *model.Regulation
	err = s.locks.Do(versionKey(req.Year), func() error {
		peak, err := s.repo.Regulation.MaxVersion(ctx, req.Year, programmeIDs, "")
		if err != nil {
			s.logger.Error("failed to compute regulation version", zap.Int("year", req.Year), zap.Error(err))
			return err
		}

		now := time.Now()
		reg = &model.Regulation{
			ID:            uuid.NewString(),
			Title:         strings.TrimSpace(req.Title),
			Year:          req.Year,
			Version:       peak + 1,
			Status:        workflow.Draft,
			ProgrammeIDs:  programmeIDs,
			CreditIDs:     pipeline.Unique(req.CreditIDs),
			GradeIDs:      pipeline.Unique(req.GradeIDs),
			EvaluationIDs: pipeline.Unique(req.EvaluationIDs),
			Attachments:   toAttachments(req.Attachments),
		}
		reg.Stamp(actor, now)

		recs := make([]model.ProgrammeRegulation, 0, len(programmes))
		for _, p := range programmes {
			recs = append(recs, newProgrammeRegulation(reg.ID, p, actor, now))
		}

		_, err = s.orch.Execute(ctx,
			txn.Create("regulation", func(ctx context.Context) ([]string, error) {
				return []string{reg.ID}, s.repo.Regulation.Create(ctx, reg)
			}).Required(),
			txn.Create("programmeRegulations", func(ctx context.Context) ([]string, error) {
				return s.repo.ProgrammeRegulation.CreateMany(ctx, recs)
			}).Required(),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityRegulation,
		EntityID: reg.ID,
		Action:   "create",
		Message:  fmt.Sprintf("Created regulation %s %d v%d", reg.Title, reg.Year, reg.Version),
	})
	return reg, nil
}

// ────────────────────── Update ──────────────────────
//
// DRAFT and REQUESTED_CHANGES regulations are freely editable and their
// version follows the new year and programme set. APPROVED regulations only
// take new programmes and scheme references; nothing can be edited while
// waiting for approval.

func (s *regulationService) Update(ctx context.Context, id string, req *dto.UpdateRegulationRequest, actor model.Actor) (*model.Regulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var updated model.Regulation
	var removed, added []string
	err := s.locks.Do(id, func() error {
		reg, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		attachments := toAttachments(req.Attachments)
		switch reg.Status {
		case workflow.WaitingForApproval:
			return ErrRegulationInReview
		case workflow.Approved:
			if strings.TrimSpace(req.Title) != reg.Title || req.Year != reg.Year || !slices.Equal(attachments, reg.Attachments) {
				return ErrRegulationFieldsLocked
			}
		}

		programmeIDs := pipeline.Unique(req.ProgrammeIDs)
		removed, added = pipeline.StringDifference(reg.ProgrammeIDs, programmeIDs)
		if reg.Status == workflow.Approved && len(removed) > 0 {
			return ErrProgrammeRemovalLocked
		}
		addedProgrammes, err := s.loadProgrammes(ctx, added)
		if err != nil {
			return err
		}

		updated = *reg
		updated.Title = strings.TrimSpace(req.Title)
		updated.Year = req.Year
		updated.ProgrammeIDs = programmeIDs
		updated.CreditIDs = pipeline.Unique(req.CreditIDs)
		updated.GradeIDs = pipeline.Unique(req.GradeIDs)
		updated.EvaluationIDs = pipeline.Unique(req.EvaluationIDs)
		updated.Attachments = attachments

		// The year lock orders this version against Create and Clone. Course
		// locks of removed programmes keep course inserts out of the cascade.
		keys := []string{versionKey(req.Year)}
		for _, p := range removed {
			keys = append(keys, keylock.CourseKey(id, p))
		}
		return s.locks.DoAll(keys, func() error {
			if reg.Status.Editable() && (req.Year != reg.Year || len(removed)+len(added) > 0) {
				peak, err := s.repo.Regulation.MaxVersion(ctx, req.Year, programmeIDs, reg.ID)
				if err != nil {
					s.logger.Error("failed to compute regulation version", zap.String("id", id), zap.Error(err))
					return err
				}
				updated.Version = peak + 1
			}

			now := time.Now()
			updated.Stamp(actor, now)

			ops := []txn.Op{
				txn.UpdateMany("regulation", func(ctx context.Context) (int64, error) {
					return s.repo.Regulation.Replace(ctx, &updated)
				}).Required(),
			}
			if len(addedProgrammes) > 0 {
				recs := make([]model.ProgrammeRegulation, 0, len(addedProgrammes))
				for _, p := range addedProgrammes {
					recs = append(recs, newProgrammeRegulation(id, p, actor, now))
				}
				ops = append(ops, txn.Create("programmeRegulations", func(ctx context.Context) ([]string, error) {
					return s.repo.ProgrammeRegulation.CreateMany(ctx, recs)
				}).Required())
			}
			if len(removed) > 0 {
				ops = append(ops, s.cascade(id, removed)...)
			}

			_, err := s.orch.Execute(ctx, ops...)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityRegulation,
		EntityID: id,
		Action:   "update",
		Message:  fmt.Sprintf("Updated regulation, %d programme(s) added, %d removed", len(added), len(removed)),
	})
	return &updated, nil
}

// ────────────────────── Delete ──────────────────────

func (s *regulationService) Delete(ctx context.Context, id string, actor model.Actor) error {
	var title string
	err := s.locks.Do(id, func() error {
		reg, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if reg.Status != workflow.Draft {
			return ErrRegulationNotDraft
		}
		title = reg.Title

		keys := make([]string, 0, len(reg.ProgrammeIDs))
		for _, p := range reg.ProgrammeIDs {
			keys = append(keys, keylock.CourseKey(id, p))
		}
		return s.locks.DoAll(keys, func() error {
			ops := append([]txn.Op{
				txn.DeleteMany("regulation", func(ctx context.Context) (int64, error) {
					return s.repo.Regulation.Delete(ctx, id)
				}).Required(),
			}, s.cascade(id, nil)...)
			_, err := s.orch.Execute(ctx, ops...)
			return err
		})
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityRegulation,
		EntityID: id,
		Action:   "delete",
		Message:  "Deleted regulation " + title,
	})
	return nil
}

// cascade removes what hangs off the regulation for the given programmes,
// or for all of them when programmeIDs is nil.
func (s *regulationService) cascade(id string, programmeIDs []string) []txn.Op {
	return []txn.Op{
		txn.DeleteMany("programmeRegulations", func(ctx context.Context) (int64, error) {
			return s.repo.ProgrammeRegulation.DeleteByRegulation(ctx, id, programmeIDs)
		}),
		txn.DeleteMany("courses", func(ctx context.Context) (int64, error) {
			return s.repo.Course.DeleteByRegulation(ctx, id, programmeIDs)
		}),
		txn.DeleteMany("regulationBatchYears", func(ctx context.Context) (int64, error) {
			return s.repo.RegulationBatchYear.DeleteByRegulation(ctx, id, programmeIDs)
		}),
	}
}

// ────────────────────── Clone ──────────────────────
//
// Clone is the only way to revise an approved regulation: the copy starts
// at DRAFT with the source's references, outcomes and course schemes.

func (s *regulationService) Clone(ctx context.Context, id string, req *dto.CloneRegulationRequest, actor model.Actor) (*model.Regulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	programmeIDs := pipeline.Unique(req.ProgrammeIDs)
	if len(programmeIDs) == 0 {
		programmeIDs = src.ProgrammeIDs
	}
	programmes, err := s.loadProgrammes(ctx, programmeIDs)
	if err != nil {
		return nil, err
	}

	srcRecs, err := s.repo.ProgrammeRegulation.ListByRegulation(ctx, id)
	if err != nil {
		s.logger.Error("failed to load programme regulations", zap.String("regulation_id", id), zap.Error(err))
		return nil, err
	}
	byProgramme := make(map[string]model.ProgrammeRegulation, len(srcRecs))
	for _, rec := range srcRecs {
		byProgramme[rec.Programme.ID] = rec
	}
	srcCourses, err := s.repo.Course.Find(ctx, model.CourseFilter{RegulationID: id})
	if err != nil {
		s.logger.Error("failed to load courses", zap.String("regulation_id", id), zap.Error(err))
		return nil, err
	}

	var reg *model.Regulation
	err = s.locks.Do(versionKey(req.Year), func() error {
		peak, err := s.repo.Regulation.MaxVersion(ctx, req.Year, programmeIDs, "")
		if err != nil {
			s.logger.Error("failed to compute regulation version", zap.Int("year", req.Year), zap.Error(err))
			return err
		}

		now := time.Now()
		reg = &model.Regulation{
			ID:            uuid.NewString(),
			Title:         strings.TrimSpace(req.Title),
			Year:          req.Year,
			Version:       peak + 1,
			Status:        workflow.Draft,
			ProgrammeIDs:  programmeIDs,
			CreditIDs:     src.CreditIDs,
			GradeIDs:      src.GradeIDs,
			EvaluationIDs: src.EvaluationIDs,
			Attachments:   src.Attachments,
			ClonedFrom:    src.ID,
		}
		reg.Stamp(actor, now)

		infos := make(map[string]model.Programme, len(programmes))
		recs := make([]model.ProgrammeRegulation, 0, len(programmes))
		for _, p := range programmes {
			infos[p.ID] = p
			rec := newProgrammeRegulation(reg.ID, p, actor, now)
			if old, ok := byProgramme[p.ID]; ok {
				rec.Po, rec.Pso, rec.Peo = old.Po, old.Pso, old.Peo
				rec.PeoPoMapping = old.PeoPoMapping
				rec.Verticals = old.Verticals
				rec.MinCredits = old.MinCredits
				rec.CourseCodeSubStr = old.CourseCodeSubStr
			}
			recs = append(recs, rec)
		}

		kept := make([]model.Course, 0, len(srcCourses))
		for _, c := range srcCourses {
			if _, ok := infos[c.Programme.ID]; ok {
				kept = append(kept, c)
			}
		}
		courses := cloneCourses(kept, actor, now, func(c *model.Course) {
			p := infos[c.Programme.ID]
			c.RegulationID = reg.ID
			c.Programme = p.Info()
			c.Department = p.Department
		})

		_, err = s.orch.Execute(ctx,
			txn.Create("regulation", func(ctx context.Context) ([]string, error) {
				return []string{reg.ID}, s.repo.Regulation.Create(ctx, reg)
			}).Required(),
			txn.Create("programmeRegulations", func(ctx context.Context) ([]string, error) {
				return s.repo.ProgrammeRegulation.CreateMany(ctx, recs)
			}).Required(),
			txn.Create("courses", func(ctx context.Context) ([]string, error) {
				return s.repo.Course.CreateMany(ctx, courses)
			}),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityRegulation,
		EntityID: reg.ID,
		Action:   "clone",
		Message:  fmt.Sprintf("Cloned from %s %d v%d", src.Title, src.Year, src.Version),
	})
	return reg, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *regulationService) Get(ctx context.Context, id string) (*dto.RegulationDetail, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ProgrammeRegulation.ListByRegulation(ctx, id)
	if err != nil {
		s.logger.Error("failed to load programme regulations", zap.String("regulation_id", id), zap.Error(err))
		return nil, err
	}
	statuses, err := s.repo.Course.ProgrammeStatuses(ctx, id, nil)
	if err != nil {
		s.logger.Error("failed to aggregate course statuses", zap.String("regulation_id", id), zap.Error(err))
		return nil, err
	}

	detail := &dto.RegulationDetail{
		Regulation: *reg,
		StatusText: reg.Status.Display(),
		Programmes: make([]dto.ProgrammeSummary, 0, len(recs)),
	}
	for _, rec := range recs {
		status, ok := statuses[rec.Programme.ID]
		if !ok {
			status = pipeline.AggregateStatus(nil)
		}
		detail.Programmes = append(detail.Programmes, dto.ProgrammeSummary{
			PrgmRegulationID: rec.ID,
			Programme:        rec.Programme,
			PoStatus:         rec.PoStatus,
			CourseStatus:     status,
			CourseStatusText: status.Display(),
			Freeze:           rec.Freeze,
		})
	}
	return detail, nil
}

func (s *regulationService) List(ctx context.Context, f model.RegulationFilter) ([]model.Regulation, int64, error) {
	regs, total, err := s.repo.Regulation.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list regulations", zap.Error(err))
		return nil, 0, err
	}
	return regs, total, nil
}

// ────────────────────── ChangeStatus ──────────────────────

func (s *regulationService) ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.Regulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var reg *model.Regulation
	var from workflow.Status
	err = s.locks.Do(id, func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status
		if err := workflow.Authorize(workflow.Regulation, from, to, roles); err != nil {
			return err
		}
		if err := requireReason(to, req.Reason); err != nil {
			return err
		}

		n, err := s.repo.Regulation.UpdateStatus(ctx, id, from, to, req.Reason, actor.ID)
		if err != nil {
			s.logger.Error("failed to update regulation status", zap.String("id", id), zap.Error(err))
			return err
		}
		if n == 0 {
			return apperrors.ErrNoModifications
		}
		reg, err = s.load(ctx, id)
		return err
	})
	transitioned(workflow.Regulation, to, err)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:     EntityRegulation,
		EntityID:   id,
		Action:     "changeStatus",
		Message:    fmt.Sprintf("%s → %s", from.Display(), to.Display()),
		Title:      reg.Title,
		Status:     to,
		Reason:     req.Reason,
		Recipients: []string{reg.CreatedByEmail},
	})
	return reg, nil
}

func (s *regulationService) AllowedTransitions(ctx context.Context, id string, roles workflow.RoleSet) ([]workflow.StatusOption, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.Options(workflow.Regulation.Allowed(reg.Status, roles)...), nil
}

// ────────────────────── helpers ──────────────────────

func (s *regulationService) load(ctx context.Context, id string) (*model.Regulation, error) {
	reg, err := s.repo.Regulation.Get(ctx, id)
	if err != nil {
		err = notFoundOr(err, ErrRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load regulation", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return reg, nil
}

// loadProgrammes resolves ids in order and rejects unknown ones.
func (s *regulationService) loadProgrammes(ctx context.Context, ids []string) ([]model.Programme, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.repo.Programme.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load programmes", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]model.Programme, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]model.Programme, 0, len(ids))
	var missing []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, p)
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("Unknown programme(s): %s.", strings.Join(missing, ", "))
	}
	return out, nil
}

func toAttachments(in []dto.AttachmentRequest) []model.Attachment {
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, model.Attachment{Name: a.Name, URL: a.URL, ContentType: a.ContentType, Size: a.Size})
	}
	return out
}
