package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/redis"
)

// ── in-memory store ──

// memStore backs every mock repository. The mock transactor snapshots it so
// an aborted transaction leaves no trace.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	regulations map[string]model.Regulation
	prgmRegs    map[string]model.ProgrammeRegulation
	courses     map[string]model.Course
	bindings    map[string]model.RegulationBatchYear
	batchYears  map[string]model.BatchYear
	programmes  map[string]model.Programme
	departments map[string]model.Department
	jobs        map[string]model.Job
	calendar    *model.AcademicCalendar
	audits      []model.AuditLog

	// fail injects an error into the named repository method.
	fail map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		regulations: make(map[string]model.Regulation),
		prgmRegs:    make(map[string]model.ProgrammeRegulation),
		courses:     make(map[string]model.Course),
		bindings:    make(map[string]model.RegulationBatchYear),
		batchYears:  make(map[string]model.BatchYear),
		programmes:  make(map[string]model.Programme),
		departments: make(map[string]model.Department),
		jobs:        make(map[string]model.Job),
		fail:        make(map[string]error),
	}
}

func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *memStore) injected(method string) error {
	return s.fail[method]
}

type memSnapshot struct {
	regulations map[string]model.Regulation
	prgmRegs    map[string]model.ProgrammeRegulation
	courses     map[string]model.Course
	bindings    map[string]model.RegulationBatchYear
	batchYears  map[string]model.BatchYear
	programmes  map[string]model.Programme
	departments map[string]model.Department
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		regulations: copyMap(s.regulations),
		prgmRegs:    copyMap(s.prgmRegs),
		courses:     copyMap(s.courses),
		bindings:    copyMap(s.bindings),
		batchYears:  copyMap(s.batchYears),
		programmes:  copyMap(s.programmes),
		departments: copyMap(s.departments),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regulations = snap.regulations
	s.prgmRegs = snap.prgmRegs
	s.courses = snap.courses
	s.bindings = snap.bindings
	s.batchYears = snap.batchYears
	s.programmes = snap.programmes
	s.departments = snap.departments
}

func copyMap[T any](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedValues[T any](in map[string]T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func page[T any](items []T, p, size int) []T {
	skip, limit := pipeline.Paginate(p, size)
	if int(skip) >= len(items) {
		return []T{}
	}
	end := int(skip + limit)
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// applyStatus mirrors the reason handling of the mongo status update.
func applyStatus(status *workflow.Status, reasonField *string, to workflow.Status, reason string) {
	*status = to
	switch {
	case to == workflow.RequestedChanges:
		*reasonField = reason
	case to == workflow.WaitingForApproval && reason != "":
		*reasonField = reason
	case to == workflow.WaitingForApproval:
	default:
		*reasonField = ""
	}
}

// ── Mock Transactor ──

type mockTransactor struct {
	store *memStore
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ── Mock RegulationRepository ──

type mockRegulationRepo struct{ s *memStore }

func (m *mockRegulationRepo) Create(_ context.Context, reg *model.Regulation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Regulation.Create"); err != nil {
		return err
	}
	if _, ok := m.s.regulations[reg.ID]; ok {
		return fmt.Errorf("duplicate regulation %s", reg.ID)
	}
	m.s.regulations[reg.ID] = *reg
	return nil
}

func (m *mockRegulationRepo) Get(_ context.Context, id string) (*model.Regulation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	reg, ok := m.s.regulations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

func (m *mockRegulationRepo) List(_ context.Context, f model.RegulationFilter) ([]model.Regulation, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := sortedValues(m.s.regulations, func(a, b model.Regulation) bool {
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Version > b.Version
	})
	var out []model.Regulation
	for _, r := range all {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Year > 0 && r.Year != f.Year {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, r)
	}
	return page(out, f.Page, f.PageSize), int64(len(out)), nil
}

func (m *mockRegulationRepo) Replace(_ context.Context, reg *model.Regulation) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	old, ok := m.s.regulations[reg.ID]
	if !ok || reflect.DeepEqual(old, *reg) {
		return 0, nil
	}
	m.s.regulations[reg.ID] = *reg
	return 1, nil
}

func (m *mockRegulationRepo) UpdateStatus(_ context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	reg, ok := m.s.regulations[id]
	if !ok || reg.Status != from {
		return 0, nil
	}
	applyStatus(&reg.Status, &reg.Reason, to, reason)
	reg.UpdatedBy = actor
	reg.UpdatedAt = time.Now()
	m.s.regulations[id] = reg
	return 1, nil
}

func (m *mockRegulationRepo) Delete(_ context.Context, id string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.regulations[id]; !ok {
		return 0, nil
	}
	delete(m.s.regulations, id)
	return 1, nil
}

func (m *mockRegulationRepo) MaxVersion(_ context.Context, year int, programmeIDs []string, excludeID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var peers []int
	for _, r := range m.s.regulations {
		if r.Year != year || r.ID == excludeID {
			continue
		}
		for _, p := range r.ProgrammeIDs {
			if contains(programmeIDs, p) {
				peers = append(peers, r.Version)
				break
			}
		}
	}
	return pipeline.NextVersion(peers) - 1, nil
}

// ── Mock ProgrammeRegulationRepository ──

type mockProgrammeRegulationRepo struct{ s *memStore }

func (m *mockProgrammeRegulationRepo) CreateMany(_ context.Context, recs []model.ProgrammeRegulation) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("ProgrammeRegulation.CreateMany"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		m.s.prgmRegs[r.ID] = r
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (m *mockProgrammeRegulationRepo) Get(_ context.Context, id string) (*model.ProgrammeRegulation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	rec, ok := m.s.prgmRegs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *mockProgrammeRegulationRepo) GetByRegulationProgramme(_ context.Context, regulationID, programmeID string) (*model.ProgrammeRegulation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, rec := range m.s.prgmRegs {
		if rec.RegulationID == regulationID && rec.Programme.ID == programmeID {
			return &rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockProgrammeRegulationRepo) ListByRegulation(_ context.Context, regulationID string) ([]model.ProgrammeRegulation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.ProgrammeRegulation
	for _, rec := range sortedValues(m.s.prgmRegs, byProgrammeName) {
		if rec.RegulationID == regulationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockProgrammeRegulationRepo) Page(_ context.Context, regulationID string, f model.MappingFilter) (*model.MappingPage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.ProgrammeRegulation
	for _, rec := range sortedValues(m.s.prgmRegs, byProgrammeName) {
		if rec.RegulationID != regulationID {
			continue
		}
		if f.PoStatus != "" && rec.PoStatus != f.PoStatus {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(rec.Programme.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, rec)
	}
	return &model.MappingPage{Records: page(out, f.Page, f.PageSize), Total: int64(len(out))}, nil
}

func byProgrammeName(a, b model.ProgrammeRegulation) bool {
	return a.Programme.Name < b.Programme.Name
}

func (m *mockProgrammeRegulationRepo) Update(_ context.Context, id string, patch model.ProgrammeRegulationPatch) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("ProgrammeRegulation.Update"); err != nil {
		return 0, err
	}
	rec, ok := m.s.prgmRegs[id]
	if !ok {
		return 0, nil
	}
	if patch.AddFreeze != nil {
		if rec.IsFrozen(*patch.AddFreeze) {
			return 0, nil
		}
		rec.Freeze = append(append([]int{}, rec.Freeze...), *patch.AddFreeze)
	}
	if patch.PoStatus != nil {
		rec.PoStatus = *patch.PoStatus
	}
	if patch.Reason != nil {
		rec.Reason = *patch.Reason
	}
	if patch.Po != nil {
		rec.Po = patch.Po
	}
	if patch.Pso != nil {
		rec.Pso = patch.Pso
	}
	if patch.Peo != nil {
		rec.Peo = patch.Peo
	}
	if patch.PeoPoMapping != nil {
		rec.PeoPoMapping = patch.PeoPoMapping
	}
	if patch.Verticals != nil {
		rec.Verticals = patch.Verticals
	}
	if patch.MinCredits != nil {
		rec.MinCredits = *patch.MinCredits
	}
	rec.UpdatedBy = patch.UpdatedBy
	rec.UpdatedAt = time.Now()
	m.s.prgmRegs[id] = rec
	return 1, nil
}

func (m *mockProgrammeRegulationRepo) UpdateStatus(_ context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	rec, ok := m.s.prgmRegs[id]
	if !ok || rec.PoStatus != from {
		return 0, nil
	}
	applyStatus(&rec.PoStatus, &rec.Reason, to, reason)
	rec.UpdatedBy = actor
	m.s.prgmRegs[id] = rec
	return 1, nil
}

func (m *mockProgrammeRegulationRepo) DeleteByRegulation(_ context.Context, regulationID string, programmeIDs []string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, rec := range m.s.prgmRegs {
		if rec.RegulationID == regulationID && (programmeIDs == nil || contains(programmeIDs, rec.Programme.ID)) {
			delete(m.s.prgmRegs, id)
			n++
		}
	}
	return n, nil
}

func (m *mockProgrammeRegulationRepo) PropagateProgramme(_ context.Context, p model.ProgrammeInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, rec := range m.s.prgmRegs {
		if rec.Programme.ID == p.ID && rec.Programme != p {
			rec.Programme = p
			m.s.prgmRegs[id] = rec
			n++
		}
	}
	return n, nil
}

func (m *mockProgrammeRegulationRepo) PropagateDepartment(_ context.Context, d model.DepartmentInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, rec := range m.s.prgmRegs {
		if rec.Department.ID == d.ID && rec.Department != d {
			rec.Department = d
			m.s.prgmRegs[id] = rec
			n++
		}
	}
	return n, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ s *memStore }

func matchCourse(c model.Course, f model.CourseFilter) bool {
	if f.RegulationID != "" && c.RegulationID != f.RegulationID {
		return false
	}
	if f.ProgrammeID != "" && c.Programme.ID != f.ProgrammeID {
		return false
	}
	if f.Code != "" && c.Code != f.Code {
		return false
	}
	if f.Semester != nil {
		if *f.Semester == 0 && c.Semester != nil {
			return false
		}
		if *f.Semester != 0 && (c.Semester == nil || *c.Semester != *f.Semester) {
			return false
		}
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Vertical != "" && !strings.EqualFold(c.Vertical, f.Vertical) {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, c.ID) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Code), q) && !strings.Contains(strings.ToLower(c.Title), q) {
			return false
		}
	}
	return true
}

func (m *mockCourseRepo) find(f model.CourseFilter) []model.Course {
	var out []model.Course
	for _, c := range sortedValues(m.s.courses, func(a, b model.Course) bool { return a.Code < b.Code }) {
		if matchCourse(c, f) {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Course.Create"); err != nil {
		return err
	}
	m.s.courses[c.ID] = *c
	return nil
}

func (m *mockCourseRepo) CreateMany(_ context.Context, courses []model.Course) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Course.CreateMany"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		m.s.courses[c.ID] = c
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (m *mockCourseRepo) Get(_ context.Context, id string) (*model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *mockCourseRepo) Find(_ context.Context, f model.CourseFilter) ([]model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.find(f), nil
}

func (m *mockCourseRepo) List(_ context.Context, f model.CourseFilter) ([]model.Course, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := m.find(f)
	return page(all, f.Page, f.PageSize), int64(len(all)), nil
}

func (m *mockCourseRepo) Count(_ context.Context, f model.CourseFilter) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.find(f))), nil
}

func distinctStatuses(courses []model.Course) []workflow.Status {
	seen := make(map[workflow.Status]struct{})
	var out []workflow.Status
	for _, c := range courses {
		if _, ok := seen[c.Status]; ok {
			continue
		}
		seen[c.Status] = struct{}{}
		out = append(out, c.Status)
	}
	return out
}

func (m *mockCourseRepo) DistinctStatuses(_ context.Context, f model.CourseFilter) ([]workflow.Status, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return distinctStatuses(m.find(f)), nil
}

func (m *mockCourseRepo) ProgrammeStatuses(_ context.Context, regulationID string, programmeIDs []string) (map[string]workflow.Status, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	byProgramme := make(map[string][]model.Course)
	for _, c := range m.find(model.CourseFilter{RegulationID: regulationID}) {
		if programmeIDs != nil && !contains(programmeIDs, c.Programme.ID) {
			continue
		}
		byProgramme[c.Programme.ID] = append(byProgramme[c.Programme.ID], c)
	}
	out := make(map[string]workflow.Status, len(byProgramme))
	for id, courses := range byProgramme {
		out[id] = pipeline.AggregateStatus(distinctStatuses(courses))
	}
	return out, nil
}

func (m *mockCourseRepo) SchemeConfirmed(_ context.Context, pairs []pipeline.RegProgramme, semester int) (map[pipeline.RegProgramme]bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[pipeline.RegProgramme]bool, len(pairs))
	for _, p := range pairs {
		sem := semester
		courses := m.find(model.CourseFilter{RegulationID: p.RegulationID, ProgrammeID: p.ProgrammeID, Semester: &sem})
		out[p] = pipeline.IsSchemeConfirmed(distinctStatuses(courses))
	}
	return out, nil
}

func (m *mockCourseRepo) Update(_ context.Context, id string, patch model.CoursePatch) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Course.Update"); err != nil {
		return 0, err
	}
	c, ok := m.s.courses[id]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Code != nil {
		c.Code = *patch.Code
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Semester != nil {
		c.Semester = *patch.Semester
	}
	if patch.EvaluationPatternID != nil {
		c.EvaluationPatternID = *patch.EvaluationPatternID
	}
	if patch.Ltpc != nil {
		c.Ltpc = *patch.Ltpc
	}
	if patch.Prerequisites != nil {
		c.Prerequisites = patch.Prerequisites
	}
	if patch.Vertical != nil {
		c.Vertical = *patch.Vertical
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Reason != nil {
		c.Reason = *patch.Reason
	}
	if patch.MappingStatus != nil {
		c.MappingStatus = *patch.MappingStatus
	}
	if patch.MappingReason != nil {
		c.MappingReason = *patch.MappingReason
	}
	if patch.Co != nil {
		c.Co = patch.Co
	}
	if patch.Mapping != nil {
		c.Mapping = patch.Mapping
	}
	c.UpdatedBy = patch.UpdatedBy
	c.UpdatedAt = time.Now()
	m.s.courses[id] = c
	return 1, nil
}

func (m *mockCourseRepo) UpdateStatusMany(_ context.Context, ids []string, from, to workflow.Status, reason, actor string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Course.UpdateStatusMany"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		c, ok := m.s.courses[id]
		if !ok || c.Status != from {
			continue
		}
		applyStatus(&c.Status, &c.Reason, to, reason)
		c.UpdatedBy = actor
		m.s.courses[id] = c
		n++
	}
	return n, nil
}

func (m *mockCourseRepo) UpdateMappingStatus(_ context.Context, id string, from, to workflow.Status, reason, actor string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.courses[id]
	if !ok || c.MappingStatus != from {
		return 0, nil
	}
	applyStatus(&c.MappingStatus, &c.MappingReason, to, reason)
	c.UpdatedBy = actor
	m.s.courses[id] = c
	return 1, nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.courses[id]; !ok {
		return 0, nil
	}
	delete(m.s.courses, id)
	return 1, nil
}

func (m *mockCourseRepo) RemovePrerequisite(_ context.Context, courseID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, c := range m.s.courses {
		var kept []model.Prerequisite
		for _, p := range c.Prerequisites {
			if p.CourseID != courseID {
				kept = append(kept, p)
			}
		}
		if len(kept) != len(c.Prerequisites) {
			c.Prerequisites = kept
			m.s.courses[id] = c
			n++
		}
	}
	return n, nil
}

func (m *mockCourseRepo) DeleteByRegulation(_ context.Context, regulationID string, programmeIDs []string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, c := range m.s.courses {
		if c.RegulationID == regulationID && (programmeIDs == nil || contains(programmeIDs, c.Programme.ID)) {
			delete(m.s.courses, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCourseRepo) PropagateProgramme(_ context.Context, p model.ProgrammeInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, c := range m.s.courses {
		if c.Programme.ID == p.ID && c.Programme != p {
			c.Programme = p
			m.s.courses[id] = c
			n++
		}
	}
	return n, nil
}

func (m *mockCourseRepo) PropagateDepartment(_ context.Context, d model.DepartmentInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, c := range m.s.courses {
		if c.Department.ID == d.ID && c.Department != d {
			c.Department = d
			m.s.courses[id] = c
			n++
		}
	}
	return n, nil
}

// ── Mock RegulationBatchYearRepository ──

type mockRegulationBatchYearRepo struct{ s *memStore }

func (m *mockRegulationBatchYearRepo) CreateMany(_ context.Context, recs []model.RegulationBatchYear) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("RegulationBatchYear.CreateMany"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		m.s.bindings[r.ID] = r
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (m *mockRegulationBatchYearRepo) List(_ context.Context, f model.RegulationBatchYearFilter) ([]model.RegulationBatchYear, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.RegulationBatchYear
	all := sortedValues(m.s.bindings, func(a, b model.RegulationBatchYear) bool {
		if a.BatchYear != b.BatchYear {
			return a.BatchYear > b.BatchYear
		}
		return a.Semester < b.Semester
	})
	for _, r := range all {
		if f.RegulationID != "" && r.Regulation.ID != f.RegulationID {
			continue
		}
		if f.ProgrammeID != "" && r.Programme.ID != f.ProgrammeID {
			continue
		}
		if f.BatchYearID != "" && r.BatchYearID != f.BatchYearID {
			continue
		}
		if f.Semester > 0 && r.Semester != f.Semester {
			continue
		}
		out = append(out, r)
	}
	return page(out, f.Page, f.PageSize), int64(len(out)), nil
}

func (m *mockRegulationBatchYearRepo) Bound(_ context.Context, batchYearIDs []string, semester int) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []string
	for _, r := range m.s.bindings {
		if r.Semester == semester && contains(batchYearIDs, r.BatchYearID) && !contains(out, r.BatchYearID) {
			out = append(out, r.BatchYearID)
		}
	}
	return out, nil
}

func (m *mockRegulationBatchYearRepo) Rebind(_ context.Context, batchYearIDs []string, semester int, reg model.RegulationInfo, prgmRegulationID, actor string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, r := range m.s.bindings {
		if r.Semester != semester || !contains(batchYearIDs, r.BatchYearID) {
			continue
		}
		if r.Regulation == reg && r.PrgmRegulationID == prgmRegulationID {
			continue
		}
		r.Regulation = reg
		r.PrgmRegulationID = prgmRegulationID
		r.UpdatedBy = actor
		m.s.bindings[id] = r
		n++
	}
	return n, nil
}

func (m *mockRegulationBatchYearRepo) DeleteByRegulation(_ context.Context, regulationID string, programmeIDs []string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, r := range m.s.bindings {
		if r.Regulation.ID == regulationID && (programmeIDs == nil || contains(programmeIDs, r.Programme.ID)) {
			delete(m.s.bindings, id)
			n++
		}
	}
	return n, nil
}

// PendingProgrammes evaluates the pending pipeline's stages in Go.
func (m *mockRegulationBatchYearRepo) PendingProgrammes(_ context.Context, activeBatchYear, academicSemester int) ([]model.PendingProgramme, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var candidates []pipeline.PendingCandidate
	for _, b := range sortedValues(m.s.batchYears, func(a, b model.BatchYear) bool { return a.ID < b.ID }) {
		sem := pipeline.ComputeSemester(activeBatchYear, b.Year, academicSemester)
		if !pipeline.InProgress(sem, b.Programme.Duration) {
			continue
		}
		var latest *model.RegulationBatchYear
		bound := false
		for _, r := range m.s.bindings {
			if r.BatchYearID != b.ID {
				continue
			}
			if r.Semester == sem {
				bound = true
				break
			}
			if latest == nil || r.Semester > latest.Semester {
				r := r
				latest = &r
			}
		}
		if bound || latest == nil {
			continue
		}
		scheme, ok := m.s.prgmRegs[latest.PrgmRegulationID]
		if !ok || !scheme.IsFrozen(sem) {
			continue
		}
		candidates = append(candidates, pipeline.PendingCandidate{Batch: b, Semester: sem, Scheme: &scheme})
	}
	return pipeline.GroupPending(candidates), nil
}

func (m *mockRegulationBatchYearRepo) PropagateProgramme(_ context.Context, p model.ProgrammeInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, r := range m.s.bindings {
		if r.Programme.ID == p.ID && r.Programme != p {
			r.Programme = p
			m.s.bindings[id] = r
			n++
		}
	}
	return n, nil
}

func (m *mockRegulationBatchYearRepo) PropagateDepartment(_ context.Context, d model.DepartmentInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, r := range m.s.bindings {
		if r.Department.ID == d.ID && r.Department != d {
			r.Department = d
			m.s.bindings[id] = r
			n++
		}
	}
	return n, nil
}

// ── Mock reference repositories ──

// syncMap upserts items into target and drops the rest.
func syncMap[T any](target map[string]T, items []T, id func(T) string) repository.SyncCounts {
	var counts repository.SyncCounts
	keep := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := id(it)
		keep[k] = struct{}{}
		if old, ok := target[k]; ok {
			counts.Matched++
			if !reflect.DeepEqual(old, it) {
				counts.Modified++
			}
		} else {
			counts.Inserted++
		}
		target[k] = it
	}
	for k := range target {
		if _, ok := keep[k]; !ok {
			delete(target, k)
			counts.Removed++
		}
	}
	return counts
}

type mockProgrammeRepo struct{ s *memStore }

func (m *mockProgrammeRepo) Get(_ context.Context, id string) (*model.Programme, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.programmes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *mockProgrammeRepo) FindByIDs(_ context.Context, ids []string) ([]model.Programme, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.Programme{}
	for _, id := range ids {
		if p, ok := m.s.programmes[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProgrammeRepo) List(_ context.Context) ([]model.Programme, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return sortedValues(m.s.programmes, func(a, b model.Programme) bool { return a.Name < b.Name }), nil
}

func (m *mockProgrammeRepo) Sync(_ context.Context, programmes []model.Programme) (repository.SyncCounts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return syncMap(m.s.programmes, programmes, func(p model.Programme) string { return p.ID }), nil
}

func (m *mockProgrammeRepo) PropagateDepartment(_ context.Context, d model.DepartmentInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, p := range m.s.programmes {
		if p.Department.ID == d.ID && p.Department != d {
			p.Department = d
			m.s.programmes[id] = p
			n++
		}
	}
	return n, nil
}

type mockDepartmentRepo struct{ s *memStore }

func (m *mockDepartmentRepo) Get(_ context.Context, id string) (*model.Department, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return sortedValues(m.s.departments, func(a, b model.Department) bool { return a.Name < b.Name }), nil
}

func (m *mockDepartmentRepo) Sync(_ context.Context, departments []model.Department) (repository.SyncCounts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Department.Sync"); err != nil {
		return repository.SyncCounts{}, err
	}
	return syncMap(m.s.departments, departments, func(d model.Department) string { return d.ID }), nil
}

type mockBatchYearRepo struct{ s *memStore }

func (m *mockBatchYearRepo) FindByIDs(_ context.Context, ids []string) ([]model.BatchYear, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.BatchYear{}
	for _, id := range ids {
		if b, ok := m.s.batchYears[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBatchYearRepo) List(_ context.Context, programmeID string) ([]model.BatchYear, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.BatchYear
	for _, b := range sortedValues(m.s.batchYears, func(a, b model.BatchYear) bool { return a.Year < b.Year }) {
		if programmeID == "" || b.Programme.ID == programmeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBatchYearRepo) Sync(_ context.Context, batches []model.BatchYear) (repository.SyncCounts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return syncMap(m.s.batchYears, batches, func(b model.BatchYear) string { return b.ID }), nil
}

func (m *mockBatchYearRepo) PropagateProgramme(_ context.Context, p model.ProgrammeInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, b := range m.s.batchYears {
		if b.Programme.ID == p.ID && b.Programme != p {
			b.Programme = p
			m.s.batchYears[id] = b
			n++
		}
	}
	return n, nil
}

func (m *mockBatchYearRepo) PropagateDepartment(_ context.Context, d model.DepartmentInfo) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, b := range m.s.batchYears {
		if b.Department.ID == d.ID && b.Department != d {
			b.Department = d
			m.s.batchYears[id] = b
			n++
		}
	}
	return n, nil
}

// ── Mock JobRepository ──

type mockJobRepo struct{ s *memStore }

func (m *mockJobRepo) Create(_ context.Context, job *model.Job) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.jobs[job.ID] = *job
	return nil
}

func (m *mockJobRepo) Get(_ context.Context, id string) (*model.Job, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	job, ok := m.s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &job, nil
}

func (m *mockJobRepo) List(_ context.Context, f model.JobFilter) ([]model.Job, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Job
	for _, j := range sortedValues(m.s.jobs, func(a, b model.Job) bool { return a.Dates.Created.After(b.Dates.Created) }) {
		if f.Name != "" && j.Name != f.Name {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		out = append(out, j)
	}
	return page(out, f.Page, f.PageSize), int64(len(out)), nil
}

func (m *mockJobRepo) Save(_ context.Context, job *model.Job) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.jobs[job.ID] = *job
	return nil
}

// jobsNamed returns the stored jobs with the given name.
func (s *memStore) jobsNamed(name model.JobName) []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Job
	for _, j := range s.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct{ s *memStore }

func (m *mockSettingsRepo) GetCalendar(_ context.Context) (*model.AcademicCalendar, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.calendar == nil {
		return nil, repository.ErrNotFound
	}
	cal := *m.s.calendar
	return &cal, nil
}

func (m *mockSettingsRepo) SaveCalendar(_ context.Context, cal *model.AcademicCalendar) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cal.ID = model.AcademicCalendarID
	saved := *cal
	m.s.calendar = &saved
	return nil
}

// ── Mock AuditRepository ──

type mockAuditRepo struct{ s *memStore }

func (m *mockAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.injected("Audit.Create"); err != nil {
		return err
	}
	m.s.audits = append(m.s.audits, *entry)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, f model.AuditFilter) ([]model.AuditLog, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.AuditLog
	for i := len(m.s.audits) - 1; i >= 0; i-- {
		a := m.s.audits[i]
		if f.Entity != "" && a.Entity != f.Entity {
			continue
		}
		if f.EntityID != "" && a.EntityID != f.EntityID {
			continue
		}
		if f.ActorID != "" && a.ActorID != f.ActorID {
			continue
		}
		out = append(out, a)
	}
	return page(out, f.Page, f.PageSize), int64(len(out)), nil
}

func (s *memStore) auditActions(entityID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, a := range s.audits {
		if a.EntityID == entityID {
			out = append(out, a.Action)
		}
	}
	return out
}

// ── Mock mail.Sender ──

type mockSender struct {
	mu   sync.Mutex
	sent []mail.Message
	fail map[string]error
}

func newMockSender() *mockSender {
	return &mockSender{fail: make(map[string]error)}
}

func (m *mockSender) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[msg.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockSender) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	sort.Strings(out)
	return out
}

// ── Mock ProgressStore ──

type mockProgressStore struct {
	mu      sync.Mutex
	entries map[string]redis.JobProgress
}

func newMockProgressStore() *mockProgressStore {
	return &mockProgressStore{entries: make(map[string]redis.JobProgress)}
}

func (m *mockProgressStore) SetJobProgress(_ context.Context, jobID, status string, percentage int, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jobID] = redis.JobProgress{Status: status, Percentage: percentage}
	return nil
}

func (m *mockProgressStore) GetJobProgress(_ context.Context, jobID string) (redis.JobProgress, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[jobID]
	return p, ok, nil
}

// ── wiring ──

func newMockRepository(s *memStore) *repository.Repository {
	return &repository.Repository{
		Regulation:          &mockRegulationRepo{s},
		ProgrammeRegulation: &mockProgrammeRegulationRepo{s},
		Course:              &mockCourseRepo{s},
		RegulationBatchYear: &mockRegulationBatchYearRepo{s},
		BatchYear:           &mockBatchYearRepo{s},
		Programme:           &mockProgrammeRepo{s},
		Department:          &mockDepartmentRepo{s},
		Job:                 &mockJobRepo{s},
		Settings:            &mockSettingsRepo{s},
		Audit:               &mockAuditRepo{s},
	}
}
