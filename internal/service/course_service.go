package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/txn"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/keylock"
)

// ── course errors ──

var (
	ErrCourseNotFound       = apperrors.NotFound("Course not found.")
	ErrCourseNotEditable    = apperrors.Denied("Courses can only be changed while in draft or requested changes.")
	ErrCourseMixedStatus    = apperrors.Validation("The selected courses must all have the same status.")
	ErrCourseOutcomesLocked = apperrors.Denied("Course outcomes can only be edited while the mapping is in draft or requested changes.")
	ErrCourseOutcomesEmpty  = apperrors.Denied("Course outcomes and their PO mapping must be filled before approval.")
)

// CourseService courses of a programme scheme.
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, actor model.Actor) (*model.Course, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, actor model.Actor) (*model.Course, error)
	Delete(ctx context.Context, id string, actor model.Actor) error
	Get(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error)
	// ChangeStatus moves several courses of one (regulation, programme)
	// together. Confirmation is all-or-nothing per semester.
	ChangeStatus(ctx context.Context, req *dto.CourseStatusRequest, actor model.Actor, roles workflow.RoleSet) (int64, error)
	ChangeMappingStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.Course, error)
	UpdateOutcomes(ctx context.Context, id string, req *dto.UpdateCourseOutcomesRequest, actor model.Actor) (*model.Course, error)
}

type courseService struct {
	repo     *repository.Repository
	orch     *txn.Orchestrator
	locks    *keylock.Registry
	activity Activity
	logger   *zap.Logger
}

func NewCourseService(d Deps) CourseService {
	return &courseService{repo: d.Repo, orch: d.Orch, locks: d.Locks, activity: d.Activity, logger: d.Logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, actor model.Actor) (*model.Course, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var course *model.Course
	err := s.locks.Do(keylock.CourseKey(req.RegulationID, req.ProgrammeID), func() error {
		scheme, err := s.scheme(ctx, req.RegulationID, req.ProgrammeID)
		if err != nil {
			return err
		}
		fields, err := s.checkFields(ctx, scheme, "", &req.CourseFields)
		if err != nil {
			return err
		}

		course = &model.Course{
			ID:            uuid.NewString(),
			RegulationID:  scheme.RegulationID,
			Programme:     scheme.Programme,
			Department:    scheme.Department,
			Status:        workflow.Draft,
			MappingStatus: workflow.Draft,
			Co:            map[string]string{},
			Mapping:       map[string]map[string]int{},
		}
		fields.applyTo(course)
		course.Stamp(actor, time.Now())

		if err := s.repo.Course.Create(ctx, course); err != nil {
			s.logger.Error("failed to create course", zap.String("code", course.Code), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityCourse,
		EntityID: course.ID,
		Action:   "create",
		Message:  fmt.Sprintf("Created %s %s (%s)", course.Code, course.Title, course.SemesterLabel()),
	})
	return course, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, actor model.Actor) (*model.Course, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *model.Course
	err = s.locks.Do(keylock.CourseKey(current.RegulationID, current.Programme.ID), func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return ErrCourseNotEditable
		}
		scheme, err := s.scheme(ctx, current.RegulationID, current.Programme.ID)
		if err != nil {
			return err
		}
		if err := checkNotFrozen(scheme, current.Semester); err != nil {
			return err
		}
		fields, err := s.checkFields(ctx, scheme, id, &req.CourseFields)
		if err != nil {
			return err
		}

		semester := fields.semester
		n, err := s.repo.Course.Update(ctx, id, model.CoursePatch{
			Title:               &fields.title,
			Code:                &fields.code,
			Type:                &fields.courseType,
			Category:            &fields.category,
			Semester:            &semester,
			EvaluationPatternID: &fields.evaluationPatternID,
			Ltpc:                &fields.ltpc,
			Prerequisites:       fields.prerequisites,
			Vertical:            &fields.vertical,
			UpdatedBy:           actor.ID,
		})
		if err != nil {
			s.logger.Error("failed to update course", zap.String("id", id), zap.Error(err))
			return err
		}
		if n == 0 {
			return apperrors.ErrNoModifications
		}
		out, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityCourse,
		EntityID: id,
		Action:   "update",
		Message:  fmt.Sprintf("Updated %s %s", out.Code, out.Title),
	})
	return out, nil
}

// ────────────────────── Delete ──────────────────────

// Delete removes an editable course and drops it from every prerequisite
// list in one transaction.
func (s *courseService) Delete(ctx context.Context, id string, actor model.Actor) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var code string
	err = s.locks.Do(keylock.CourseKey(current.RegulationID, current.Programme.ID), func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return ErrCourseNotEditable
		}
		scheme, err := s.scheme(ctx, current.RegulationID, current.Programme.ID)
		if err != nil {
			return err
		}
		if err := checkNotFrozen(scheme, current.Semester); err != nil {
			return err
		}
		code = current.Code

		_, err = s.orch.Execute(ctx,
			txn.DeleteMany("course", func(ctx context.Context) (int64, error) {
				return s.repo.Course.Delete(ctx, id)
			}).Required(),
			txn.UpdateMany("prerequisites", func(ctx context.Context) (int64, error) {
				return s.repo.Course.RemovePrerequisite(ctx, id)
			}),
		)
		return err
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityCourse,
		EntityID: id,
		Action:   "delete",
		Message:  "Deleted " + code,
	})
	return nil
}

// ────────────────────── Get / List ──────────────────────

func (s *courseService) Get(ctx context.Context, id string) (*model.Course, error) {
	return s.load(ctx, id)
}

func (s *courseService) List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error) {
	courses, total, err := s.repo.Course.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, 0, err
	}
	return courses, total, nil
}

// ────────────────────── ChangeStatus ──────────────────────
//
// The selected courses share one current status and move together in one
// transaction. Confirming is all-or-nothing per semester: every course of
// each affected semester must either be CONFIRMED already or be part of the
// request.

func (s *courseService) ChangeStatus(ctx context.Context, req *dto.CourseStatusRequest, actor model.Actor, roles workflow.RoleSet) (int64, error) {
	if err := Validate(req); err != nil {
		return 0, err
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		return 0, err
	}
	ids := uniqueIDs(req.CourseIDs)

	var (
		moved   []model.Course
		from    workflow.Status
		changed int64
	)
	err = s.locks.Do(keylock.CourseKey(req.RegulationID, req.ProgrammeID), func() error {
		courses, err := s.repo.Course.Find(ctx, model.CourseFilter{
			RegulationID: req.RegulationID,
			ProgrammeID:  req.ProgrammeID,
			IDs:          ids,
		})
		if err != nil {
			s.logger.Error("failed to load courses", zap.Strings("ids", ids), zap.Error(err))
			return err
		}
		if len(courses) != len(ids) {
			return apperrors.NotFound("%d of the selected courses were not found in this programme.", len(ids)-len(courses))
		}

		from = courses[0].Status
		for _, c := range courses[1:] {
			if c.Status != from {
				return ErrCourseMixedStatus
			}
		}
		if err := workflow.Authorize(workflow.Course, from, to, roles); err != nil {
			return err
		}
		if err := requireReason(to, req.Reason); err != nil {
			return err
		}
		if to == workflow.Confirmed {
			if err := s.checkWholeSemesters(ctx, req.RegulationID, req.ProgrammeID, courses); err != nil {
				return err
			}
		}

		res, err := s.orch.Execute(ctx,
			txn.UpdateMany("courses", func(ctx context.Context) (int64, error) {
				return s.repo.Course.UpdateStatusMany(ctx, ids, from, to, req.Reason, actor.ID)
			}).Required(),
			txn.Check("allMoved", func(ctx context.Context) error {
				n, err := s.repo.Course.Count(ctx, model.CourseFilter{IDs: ids, Status: to})
				if err != nil {
					return err
				}
				if n != int64(len(ids)) {
					return apperrors.ErrOptimisticLock
				}
				return nil
			}),
		)
		if err != nil {
			return err
		}
		moved = courses
		changed = res.Modified
		return nil
	})
	transitioned(workflow.Course, to, err)
	if err != nil {
		return 0, err
	}

	codes := make([]string, 0, len(moved))
	recipients := make([]string, 0, len(moved))
	for _, c := range moved {
		codes = append(codes, c.Code)
		recipients = append(recipients, c.CreatedByEmail)
		s.activity.Record(ctx, actor, Event{
			Entity:   EntityCourse,
			EntityID: c.ID,
			Action:   "changeStatus",
			Message:  fmt.Sprintf("%s → %s", from.Display(), to.Display()),
		})
	}
	// One mail for the whole batch.
	s.activity.Record(ctx, actor, Event{
		Entity:     EntityCourse,
		Title:      strings.Join(codes, ", "),
		Status:     to,
		Reason:     req.Reason,
		Recipients: recipients,
		NotifyOnly: true,
	})
	return changed, nil
}

// checkWholeSemesters rejects a confirmation that would leave part of a
// semester unconfirmed. Category courses are grouped by category.
func (s *courseService) checkWholeSemesters(ctx context.Context, regulationID, programmeID string, selected []model.Course) error {
	inRequest := make(map[string]struct{}, len(selected))
	groups := make(map[string]*int)
	for _, c := range selected {
		inRequest[c.ID] = struct{}{}
		groups[groupKey(&c)] = c.Semester
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sem := groups[key]
		filter := model.CourseFilter{RegulationID: regulationID, ProgrammeID: programmeID, Semester: sem}
		if sem == nil {
			none := 0
			filter.Semester = &none
		}
		siblings, err := s.repo.Course.Find(ctx, filter)
		if err != nil {
			s.logger.Error("failed to load semester courses", zap.String("group", key), zap.Error(err))
			return err
		}

		var left []string
		for _, c := range siblings {
			if groupKey(&c) != key {
				continue
			}
			if _, ok := inRequest[c.ID]; ok || c.Status == workflow.Confirmed {
				continue
			}
			left = append(left, c.Code)
		}
		if len(left) > 0 {
			return apperrors.Denied("All courses of %s must be confirmed together; %s not included.",
				key, strings.Join(left, ", "))
		}
	}
	return nil
}

func groupKey(c *model.Course) string {
	return c.SemesterLabel()
}

// ────────────────────── Course outcomes ──────────────────────

func (s *courseService) ChangeMappingStatus(ctx context.Context, id string, req *dto.ChangeStatusRequest, actor model.Actor, roles workflow.RoleSet) (*model.Course, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *model.Course
	var from workflow.Status
	err = s.locks.Do(keylock.CourseKey(current.RegulationID, current.Programme.ID), func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		from = current.MappingStatus
		if err := workflow.Authorize(workflow.CourseOutcome, from, to, roles); err != nil {
			return err
		}
		if err := requireReason(to, req.Reason); err != nil {
			return err
		}
		if to == workflow.Approved && (len(current.Co) == 0 || len(current.Mapping) == 0) {
			return ErrCourseOutcomesEmpty
		}

		n, err := s.repo.Course.UpdateMappingStatus(ctx, id, from, to, req.Reason, actor.ID)
		if err != nil {
			s.logger.Error("failed to update course mapping status", zap.String("id", id), zap.Error(err))
			return err
		}
		if n == 0 {
			return apperrors.ErrNoModifications
		}
		out, err = s.load(ctx, id)
		return err
	})
	transitioned(workflow.CourseOutcome, to, err)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:     EntityCourseOutcome,
		EntityID:   id,
		Action:     "changeStatus",
		Message:    fmt.Sprintf("%s → %s", from.Display(), to.Display()),
		Title:      out.Code + " " + out.Title,
		Status:     to,
		Reason:     req.Reason,
		Recipients: []string{out.CreatedByEmail},
	})
	return out, nil
}

// UpdateOutcomes replaces the course outcomes and their mapping onto the
// programme's PO and PSO codes.
func (s *courseService) UpdateOutcomes(ctx context.Context, id string, req *dto.UpdateCourseOutcomesRequest, actor model.Actor) (*model.Course, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	co := trimOutcomes(req.Co)
	mapping := req.Mapping
	if mapping == nil {
		mapping = map[string]map[string]int{}
	}

	var out *model.Course
	err = s.locks.Do(keylock.CourseKey(current.RegulationID, current.Programme.ID), func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !current.MappingStatus.Editable() {
			return ErrCourseOutcomesLocked
		}
		scheme, err := s.scheme(ctx, current.RegulationID, current.Programme.ID)
		if err != nil {
			return err
		}
		if err := validateCorrelation(mapping, co, "CO", scheme.Po, scheme.Pso); err != nil {
			return err
		}

		n, err := s.repo.Course.Update(ctx, id, model.CoursePatch{Co: co, Mapping: mapping, UpdatedBy: actor.ID})
		if err != nil {
			s.logger.Error("failed to update course outcomes", zap.String("id", id), zap.Error(err))
			return err
		}
		if n == 0 {
			return apperrors.ErrNoModifications
		}
		out, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, Event{
		Entity:   EntityCourseOutcome,
		EntityID: id,
		Action:   "updateOutcomes",
		Message:  fmt.Sprintf("%d course outcome(s) for %s", len(co), out.Code),
	})
	return out, nil
}

// ────────────────────── helpers ──────────────────────

func (s *courseService) load(ctx context.Context, id string) (*model.Course, error) {
	c, err := s.repo.Course.Get(ctx, id)
	if err != nil {
		err = notFoundOr(err, ErrCourseNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load course", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return c, nil
}

// scheme loads the programme regulation a course belongs to.
func (s *courseService) scheme(ctx context.Context, regulationID, programmeID string) (*model.ProgrammeRegulation, error) {
	rec, err := s.repo.ProgrammeRegulation.GetByRegulationProgramme(ctx, regulationID, programmeID)
	if err != nil {
		err = notFoundOr(err, ErrProgrammeRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load programme regulation",
				zap.String("regulation_id", regulationID), zap.String("programme_id", programmeID), zap.Error(err))
		}
		return nil, err
	}
	return rec, nil
}

func checkNotFrozen(scheme *model.ProgrammeRegulation, semester *int) error {
	if semester != nil && scheme.IsFrozen(*semester) {
		return apperrors.Denied("Semester %d is frozen; its courses cannot be changed.", *semester)
	}
	return nil
}

// courseFields are request fields after validation against the scheme.
type courseFields struct {
	semester            *int
	code                string
	title               string
	courseType          string
	category            string
	evaluationPatternID string
	ltpc                model.Ltpc
	prerequisites       []model.Prerequisite
	vertical            string
}

func (f *courseFields) applyTo(c *model.Course) {
	c.Semester = f.semester
	c.Code = f.code
	c.Title = f.title
	c.Type = f.courseType
	c.Category = f.category
	c.EvaluationPatternID = f.evaluationPatternID
	c.Ltpc = f.ltpc
	c.Prerequisites = f.prerequisites
	c.Vertical = f.vertical
}

// checkFields validates a course body against its scheme: the semester is
// not frozen, the code is unique in the scheme and carries the scheme's
// code fragment, the vertical exists, and prerequisites are other courses of
// the same scheme. selfID is empty on create.
func (s *courseService) checkFields(ctx context.Context, scheme *model.ProgrammeRegulation, selfID string, in *dto.CourseFields) (*courseFields, error) {
	if err := checkNotFrozen(scheme, in.Semester); err != nil {
		return nil, err
	}
	if limit := 2 * scheme.Programme.Duration; in.Semester != nil && limit > 0 && *in.Semester > limit {
		return nil, apperrors.Validation("Semester must be between 1 and %d for this programme.", limit)
	}

	f := &courseFields{
		semester:            in.Semester,
		code:                strings.ToUpper(strings.TrimSpace(in.Code)),
		title:               strings.TrimSpace(in.Title),
		courseType:          strings.TrimSpace(in.Type),
		category:            strings.TrimSpace(in.Category),
		evaluationPatternID: in.EvaluationPatternID,
		ltpc:                model.Ltpc{ID: in.Ltpc.ID, L: in.Ltpc.L, T: in.Ltpc.T, P: in.Ltpc.P, C: in.Ltpc.C},
		prerequisites:       []model.Prerequisite{},
		vertical:            strings.TrimSpace(in.Vertical),
	}

	var msgs []string
	if sub := strings.ToUpper(scheme.CourseCodeSubStr); sub != "" && !strings.Contains(f.code, sub) {
		msgs = append(msgs, fmt.Sprintf("Course code must contain %q.", scheme.CourseCodeSubStr))
	}
	if f.vertical != "" {
		// Stored in the scheme's spelling so vertical lookups stay exact.
		i := slices.IndexFunc(scheme.Verticals, func(v string) bool { return strings.EqualFold(v, f.vertical) })
		if i < 0 {
			msgs = append(msgs, fmt.Sprintf("Vertical %q is not defined for this programme.", f.vertical))
		} else {
			f.vertical = scheme.Verticals[i]
		}
	}

	dups, err := s.repo.Course.Find(ctx, model.CourseFilter{
		RegulationID: scheme.RegulationID,
		ProgrammeID:  scheme.Programme.ID,
		Code:         f.code,
	})
	if err != nil {
		s.logger.Error("failed to check course code", zap.String("code", f.code), zap.Error(err))
		return nil, err
	}
	for _, d := range dups {
		if d.ID != selfID {
			msgs = append(msgs, fmt.Sprintf("Course code %s already exists in this programme.", f.code))
			break
		}
	}

	prereqIDs := uniqueIDs(in.Prerequisites)
	if len(prereqIDs) > 0 {
		found, err := s.repo.Course.Find(ctx, model.CourseFilter{
			RegulationID: scheme.RegulationID,
			ProgrammeID:  scheme.Programme.ID,
			IDs:          prereqIDs,
		})
		if err != nil {
			s.logger.Error("failed to load prerequisites", zap.Error(err))
			return nil, err
		}
		byID := make(map[string]model.Course, len(found))
		for _, c := range found {
			byID[c.ID] = c
		}
		for _, pid := range prereqIDs {
			c, ok := byID[pid]
			switch {
			case pid == selfID:
				msgs = append(msgs, "A course cannot be its own prerequisite.")
			case !ok:
				msgs = append(msgs, fmt.Sprintf("Prerequisite %s is not a course of this programme.", pid))
			default:
				f.prerequisites = append(f.prerequisites, model.Prerequisite{CourseID: c.ID, CourseCode: c.Code})
			}
		}
	}

	if len(msgs) > 0 {
		return nil, apperrors.MultiErr(msgs)
	}
	return f, nil
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
