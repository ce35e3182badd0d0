package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

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

// ── programme regulation errors ──

var (
	ErrProgrammeRegulationNotFound = apperrors.NotFound("Programme regulation not found.")
	ErrMappingNotEditable          = apperrors.Denied("Outcomes can only be edited while the mapping is in draft or requested changes.")
	ErrOutcomesIncomplete          = apperrors.Denied("PO, PSO and PEO must all be filled before the mapping can be approved.")
	ErrTargetSchemeNotEmpty        = apperrors.Denied("The target programme already has courses; a scheme can only be cloned into an empty programme.")
	ErrSourceSchemeEmpty           = apperrors.Denied("The source programme has no courses to clone.")
)

// Correlation levels of an outcome mapping.
const (
	minCorrelation = 1
	maxCorrelation = 3
)

// ProgrammeRegulationService outcomes and course-scheme settings of one
// programme under one regulation.
type ProgrammeRegulationService interface {
	Get(ctx context.Context, id string) (*model.ProgrammeRegulation, error)
	ListByRegulation(ctx context.Context, regulationID string, f model.MappingFilter) (*model.MappingPage, error)
	UpdateOutcomes(ctx context.Context, id string, req *dto.UpdateOutcomesRequest, actor model.Actor) (*model.ProgrammeRegulation, error)
	UpdatePeoPoMapping(ctx context.Context, id string, req *dto.UpdatePeoPoMappingRequest, actor model.Actor) (*model.ProgrammeRegulation, error)
	UpdateVerticals(ctx context.Context, id string, req *dto.UpdateVerticalsRequest, actor model.Actor) (*model.ProgrammeRegulation, error)
	UpdateMinCredits(ctx context.Context, id string, req *dto.UpdateMinCreditsRequest, actor model.Actor) (*model.ProgrammeRegulation, error)
	ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.ProgrammeRegulation, error)
	FreezeSemester(ctx context.Context, id string, req *dto.FreezeSemesterRequest, actor model.Actor) (*model.ProgrammeRegulation, error)
	CloneScheme(ctx context.Context, id string, req *dto.CloneSchemeRequest, actor model.Actor) (*dto.CloneSchemeResponse, error)
	ProgrammeStatus(ctx context.Context, regulationID string) (map[string]workflow.Status, error)
}

type programmeRegulationService struct {
	repo     *repository.Repository
	orch     *txn.Orchestrator
	locks    *keylock.Registry
	activity Activity
	logger   *zap.Logger
}

func NewProgrammeRegulationService(d Deps) ProgrammeRegulationService {
	return &programmeRegulationService{repo: d.Repo, orch: d.Orch, locks: d.Locks, activity: d.Activity, logger: d.Logger}
}

// ────────────────────── Get / List ──────────────────────

func (s *programmeRegulationService) Get(ctx context.Context, id string) (*model.ProgrammeRegulation, error) {
	return s.load(ctx, id)
}

func (s *programmeRegulationService) ListByRegulation(ctx context.Context, regulationID string, f model.MappingFilter) (*model.MappingPage, error) {
	page, err := s.repo.ProgrammeRegulation.Page(ctx, regulationID, f)
	if err != nil {
		s.logger.Error("failed to page programme regulations", zap.String("regulation_id", regulationID), zap.Error(err))
		return nil, err
	}
	return page, nil
}

// ProgrammeStatus derives one course status label per programme of the
// regulation. Programmes without courses are PENDING.
func (s *programmeRegulationService) ProgrammeStatus(ctx context.Context, regulationID string) (map[string]workflow.Status, error) {
	recs, err := s.repo.ProgrammeRegulation.ListByRegulation(ctx, regulationID)
	if err != nil {
		s.logger.Error("failed to load programme regulations", zap.String("regulation_id", regulationID), zap.Error(err))
		return nil, err
	}
	statuses, err := s.repo.Course.ProgrammeStatuses(ctx, regulationID, nil)
	if err != nil {
		s.logger.Error("failed to aggregate course statuses", zap.String("regulation_id", regulationID), zap.Error(err))
		return nil, err
	}

	out := make(map[string]workflow.Status, len(recs))
	for _, rec := range recs {
		status, ok := statuses[rec.Programme.ID]
		if !ok {
			status = pipeline.AggregateStatus(nil)
		}
		out[rec.Programme.ID] = status
	}
	return out, nil
}

// ────────────────────── Outcomes ──────────────────────

// UpdateOutcomes replaces po, pso and peo. Mapping entries whose po or peo
// code disappeared are dropped.
func (s *programmeRegulationService) UpdateOutcomes(ctx context.Context, id string, req *dto.UpdateOutcomesRequest, actor model.Actor) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	po, pso, peo := trimOutcomes(req.Po), trimOutcomes(req.Pso), trimOutcomes(req.Peo)

	return s.edit(ctx, id, actor, "updateOutcomes", func(rec *model.ProgrammeRegulation) (model.ProgrammeRegulationPatch, error) {
		mapping := make(map[string]map[string]int, len(rec.PeoPoMapping))
		for peoCode, row := range rec.PeoPoMapping {
			if _, ok := peo[peoCode]; !ok {
				continue
			}
			kept := make(map[string]int, len(row))
			for poCode, level := range row {
				if _, ok := po[poCode]; ok {
					kept[poCode] = level
				}
			}
			mapping[peoCode] = kept
		}
		return model.ProgrammeRegulationPatch{Po: po, Pso: pso, Peo: peo, PeoPoMapping: mapping}, nil
	})
}

// UpdatePeoPoMapping validates every cell against the record's own po and
// peo codes and reports all bad cells at once.
func (s *programmeRegulationService) UpdatePeoPoMapping(ctx context.Context, id string, req *dto.UpdatePeoPoMappingRequest, actor model.Actor) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return s.edit(ctx, id, actor, "updatePeoPoMapping", func(rec *model.ProgrammeRegulation) (model.ProgrammeRegulationPatch, error) {
		if err := validateCorrelation(req.Mapping, rec.Peo, "PEO", rec.Po, nil); err != nil {
			return model.ProgrammeRegulationPatch{}, err
		}
		return model.ProgrammeRegulationPatch{PeoPoMapping: req.Mapping}, nil
	})
}

func (s *programmeRegulationService) UpdateMinCredits(ctx context.Context, id string, req *dto.UpdateMinCreditsRequest, actor model.Actor) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	var rec *model.ProgrammeRegulation
	err := s.locks.Do(id, func() error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		patch := model.ProgrammeRegulationPatch{
			MinCredits: &model.MinCredits{Regular: req.Regular, Lateral: req.Lateral},
			UpdatedBy:  actor.ID,
		}
		var err error
		rec, err = s.apply(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, Event{
		Entity:   EntityProgrammeRegulation,
		EntityID: id,
		Action:   "updateMinCredits",
		Message:  fmt.Sprintf("Minimum credits set to %d regular, %d lateral", req.Regular, req.Lateral),
	})
	return rec, nil
}

// edit runs an outcome edit under the record's lock. Only DRAFT and
// REQUESTED_CHANGES mappings are editable.
func (s *programmeRegulationService) edit(
	ctx context.Context, id string, actor model.Actor, action string,
	build func(rec *model.ProgrammeRegulation) (model.ProgrammeRegulationPatch, error),
) (*model.ProgrammeRegulation, error) {
	var out *model.ProgrammeRegulation
	err := s.locks.Do(id, func() error {
		rec, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !rec.PoStatus.Editable() {
			return ErrMappingNotEditable
		}
		patch, err := build(rec)
		if err != nil {
			return err
		}
		patch.UpdatedBy = actor.ID
		out, err = s.apply(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, Event{
		Entity:   EntityProgrammeRegulation,
		EntityID: id,
		Action:   action,
		Message:  "Updated " + out.Programme.Name,
	})
	return out, nil
}

// ────────────────────── Verticals ──────────────────────

// UpdateVerticals replaces the vertical names. Names are trimmed and must be
// unique ignoring case; a vertical still used by a course cannot be removed.
// A vertical in use is matched ignoring case.
//
// Runs under the scheme's course lock so no course can pick up a vertical
// being removed. Writes that only touch the record's own fields (status,
// outcomes, mappings, min credits) lock the record id instead. The two
// groups $set disjoint fields apart from the update stamps, so holding
// different keys loses no update.
func (s *programmeRegulationService) UpdateVerticals(ctx context.Context, id string, req *dto.UpdateVerticalsRequest, actor model.Actor) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	verticals, err := normalizeVerticals(req.Verticals)
	if err != nil {
		return nil, err
	}

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *model.ProgrammeRegulation
	var removed, added []string
	err = s.locks.Do(keylock.CourseKey(rec.RegulationID, rec.Programme.ID), func() error {
		rec, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		removed, added = pipeline.StringDifference(rec.Verticals, verticals)

		var inUse []string
		for _, v := range removed {
			n, err := s.repo.Course.Count(ctx, model.CourseFilter{
				RegulationID: rec.RegulationID,
				ProgrammeID:  rec.Programme.ID,
				Vertical:     v,
			})
			if err != nil {
				s.logger.Error("failed to count vertical courses", zap.String("id", id), zap.Error(err))
				return err
			}
			if n > 0 {
				inUse = append(inUse, fmt.Sprintf("Vertical %q is used by %d course(s) and cannot be removed.", v, n))
			}
		}
		if len(inUse) > 0 {
			if len(inUse) == 1 {
				return apperrors.Denied("%s", inUse[0])
			}
			return apperrors.MultiErr(inUse)
		}

		out, err = s.apply(ctx, id, model.ProgrammeRegulationPatch{Verticals: verticals, UpdatedBy: actor.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityProgrammeRegulation,
		EntityID: id,
		Action:   "updateVerticals",
		Message:  fmt.Sprintf("Verticals: %d added, %d removed", len(added), len(removed)),
	})
	return out, nil
}

// ────────────────────── ChangeStatus ──────────────────────

func (s *programmeRegulationService) ChangeStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var out *model.ProgrammeRegulation
	var from workflow.Status
	err = s.locks.Do(id, func() error {
		rec, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		from = rec.PoStatus
		if err := workflow.Authorize(workflow.ProgrammeRegulation, from, to, roles); err != nil {
			return err
		}
		if err := requireReason(to, req.Reason); err != nil {
			return err
		}
		if to == workflow.Approved && !rec.OutcomesComplete() {
			return ErrOutcomesIncomplete
		}

		n, err := s.repo.ProgrammeRegulation.UpdateStatus(ctx, id, from, to, req.Reason, actor.ID)
		if err != nil {
			s.logger.Error("failed to update mapping status", zap.String("id", id), zap.Error(err))
			return err
		}
		if n == 0 {
			return apperrors.ErrNoModifications
		}
		out, err = s.load(ctx, id)
		return err
	})
	transitioned(workflow.ProgrammeRegulation, to, err)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:     EntityProgrammeRegulation,
		EntityID:   id,
		Action:     "changeStatus",
		Message:    fmt.Sprintf("%s → %s", from.Display(), to.Display()),
		Title:      out.Programme.Name,
		Status:     to,
		Reason:     req.Reason,
		Recipients: []string{out.CreatedByEmail},
	})
	return out, nil
}

// ────────────────────── FreezeSemester ──────────────────────
//
// A semester can be frozen once every one of its courses is CONFIRMED.
// Frozen semesters are what batches get bound to.

func (s *programmeRegulationService) FreezeSemester(ctx context.Context, id string, req *dto.FreezeSemesterRequest, actor model.Actor) (*model.ProgrammeRegulation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	sem := req.Semester

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit := 2 * rec.Programme.Duration; rec.Programme.Duration > 0 && sem > limit {
		return nil, apperrors.Validation("Semester must be between 1 and %d for this programme.", limit)
	}

	var out *model.ProgrammeRegulation
	err = s.locks.Do(keylock.CourseKey(rec.RegulationID, rec.Programme.ID), func() error {
		rec, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if rec.IsFrozen(sem) {
			return apperrors.Denied("Semester %d is already frozen.", sem)
		}

		filter := model.CourseFilter{RegulationID: rec.RegulationID, ProgrammeID: rec.Programme.ID, Semester: &sem}
		statuses, err := s.repo.Course.DistinctStatuses(ctx, filter)
		if err != nil {
			s.logger.Error("failed to read course statuses", zap.String("id", id), zap.Error(err))
			return err
		}
		if len(statuses) == 0 {
			return apperrors.Denied("Semester %d has no courses to freeze.", sem)
		}
		if !pipeline.IsSchemeConfirmed(statuses) {
			return apperrors.Denied("All courses of semester %d must be confirmed before it can be frozen.", sem)
		}

		out, err = s.apply(ctx, id, model.ProgrammeRegulationPatch{AddFreeze: &sem, UpdatedBy: actor.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityProgrammeRegulation,
		EntityID: id,
		Action:   "freezeSemester",
		Message:  fmt.Sprintf("Froze semester %d of %s", sem, out.Programme.Name),
	})
	return out, nil
}

// ────────────────────── CloneScheme ──────────────────────
//
// Copies every course of the source scheme into the target one with new ids
// and remapped prerequisites, and merges the source verticals into the
// target's, all in one transaction.

func (s *programmeRegulationService) CloneScheme(ctx context.Context, id string, req *dto.CloneSchemeRequest, actor model.Actor) (*dto.CloneSchemeResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.SourceID == id {
		return nil, apperrors.Validation("A scheme cannot be cloned onto itself.")
	}

	target, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	source, err := s.load(ctx, req.SourceID)
	if err != nil {
		return nil, err
	}

	var resp *dto.CloneSchemeResponse
	err = s.locks.Do(keylock.CourseKey(target.RegulationID, target.Programme.ID), func() error {
		target, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		existing, err := s.repo.Course.Count(ctx, model.CourseFilter{RegulationID: target.RegulationID, ProgrammeID: target.Programme.ID})
		if err != nil {
			s.logger.Error("failed to count target courses", zap.String("id", id), zap.Error(err))
			return err
		}
		if existing > 0 {
			return ErrTargetSchemeNotEmpty
		}

		srcCourses, err := s.repo.Course.Find(ctx, model.CourseFilter{RegulationID: source.RegulationID, ProgrammeID: source.Programme.ID})
		if err != nil {
			s.logger.Error("failed to load source courses", zap.String("source_id", source.ID), zap.Error(err))
			return err
		}
		if len(srcCourses) == 0 {
			return ErrSourceSchemeEmpty
		}

		courses := cloneCourses(srcCourses, actor, time.Now(), func(c *model.Course) {
			c.RegulationID = target.RegulationID
			c.Programme = target.Programme
			c.Department = target.Department
		})
		verticals := mergeVerticals(target.Verticals, source.Verticals)

		_, err = s.orch.Execute(ctx,
			txn.Create("courses", func(ctx context.Context) ([]string, error) {
				return s.repo.Course.CreateMany(ctx, courses)
			}).Required(),
			txn.UpdateMany("programmeRegulation", func(ctx context.Context) (int64, error) {
				return s.repo.ProgrammeRegulation.Update(ctx, id, model.ProgrammeRegulationPatch{Verticals: verticals, UpdatedBy: actor.ID})
			}).Required(),
		)
		if err != nil {
			return err
		}
		resp = &dto.CloneSchemeResponse{Courses: len(courses), Verticals: verticals}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityProgrammeRegulation,
		EntityID: id,
		Action:   "cloneScheme",
		Message:  fmt.Sprintf("Cloned %d course(s) from programme regulation %s", resp.Courses, source.ID),
	})
	return resp, nil
}

// ────────────────────── helpers ──────────────────────

func (s *programmeRegulationService) load(ctx context.Context, id string) (*model.ProgrammeRegulation, error) {
	rec, err := s.repo.ProgrammeRegulation.Get(ctx, id)
	if err != nil {
		err = notFoundOr(err, ErrProgrammeRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load programme regulation", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return rec, nil
}

// apply writes a patch that must modify the record and returns the result.
func (s *programmeRegulationService) apply(ctx context.Context, id string, patch model.ProgrammeRegulationPatch) (*model.ProgrammeRegulation, error) {
	n, err := s.repo.ProgrammeRegulation.Update(ctx, id, patch)
	if err != nil {
		s.logger.Error("failed to update programme regulation", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.ErrNoModifications
	}
	return s.load(ctx, id)
}

func trimOutcomes(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// validateCorrelation checks an outcome mapping: every row code must be in
// rows, every column code in one of cols or extra, and every level 1-3.
func validateCorrelation(mapping map[string]map[string]int, rows map[string]string, rowLabel string, cols, extra map[string]string) error {
	var msgs []string
	rowCodes := sortedKeys(mapping)
	for _, r := range rowCodes {
		if _, ok := rows[r]; !ok {
			msgs = append(msgs, fmt.Sprintf("%s %q does not exist.", rowLabel, r))
			continue
		}
		for _, c := range sortedKeys(mapping[r]) {
			_, inCols := cols[c]
			_, inExtra := extra[c]
			if !inCols && !inExtra {
				msgs = append(msgs, fmt.Sprintf("Outcome %q mapped from %s %q does not exist.", c, rowLabel, r))
				continue
			}
			if level := mapping[r][c]; level < minCorrelation || level > maxCorrelation {
				msgs = append(msgs, fmt.Sprintf("Correlation %s %q → %q must be between %d and %d, got %d.",
					rowLabel, r, c, minCorrelation, maxCorrelation, level))
			}
		}
	}
	if len(msgs) > 0 {
		return apperrors.MultiErr(msgs)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeVerticals trims names and rejects case-insensitive duplicates.
func normalizeVerticals(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	var dups []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, apperrors.Validation("Vertical names cannot be empty.")
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			dups = append(dups, v)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	if len(dups) > 0 {
		return nil, apperrors.Validation("Vertical names must be unique: %s.", strings.Join(dups, ", "))
	}
	return out, nil
}

// mergeVerticals is target followed by the source names it lacks, compared
// ignoring case.
func mergeVerticals(target, source []string) []string {
	out := append([]string{}, target...)
	seen := make(map[string]struct{}, len(target))
	for _, v := range target {
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range source {
		if _, ok := seen[strings.ToLower(v)]; ok {
			continue
		}
		seen[strings.ToLower(v)] = struct{}{}
		out = append(out, v)
	}
	return out
}
