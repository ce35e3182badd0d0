package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/txn"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/keylock"
)

// ── test fixtures ──

var (
	author   = model.Actor{ID: "u-author", Name: "Author", Email: "author@college.edu"}
	approver = model.Actor{ID: "u-approver", Name: "Approver", Email: "approver@college.edu"}
	dean     = model.Actor{ID: "u-dean", Name: "Dean", Email: "dean@college.edu"}

	authorRoles   = workflow.NewRoleSet(workflow.RoleRegAuthor, workflow.RolePrgmCoordinator)
	approverRoles = workflow.NewRoleSet(workflow.RoleRegApprover, workflow.RoleHOD)
	deanRoles     = workflow.NewRoleSet(workflow.RoleDean)
)

var cse = model.Department{ID: "d-cse", Name: "Computer Science", Category: "Engineering", ShortName: "CSE"}

var (
	beCSE = model.Programme{ID: "p-be-cse", Category: "UG", Name: "B.E. Computer Science", Duration: 4, ShortName: "BE-CSE", Department: cse.Info()}
	beECE = model.Programme{ID: "p-be-ece", Category: "UG", Name: "B.E. Electronics", Duration: 4, ShortName: "BE-ECE", Department: cse.Info()}
	meCSE = model.Programme{ID: "p-me-cse", Category: "PG", Name: "M.E. Computer Science", Duration: 2, ShortName: "ME-CSE", Department: cse.Info()}
)

type testEnv struct {
	svc      *Service
	repo     *repository.Repository
	store    *memStore
	sender   *mockSender
	progress *mockProgressStore
}

func setupTestService() *testEnv {
	store := newMemStore()
	store.departments[cse.ID] = cse
	for _, p := range []model.Programme{beCSE, beECE, meCSE} {
		store.programmes[p.ID] = p
	}

	sender := newMockSender()
	progress := newMockProgressStore()
	repo := newMockRepository(store)
	svc := NewService(&config.Config{}, repo, &mockTransactor{store: store}, progress, sender, zap.NewNop())
	return &testEnv{svc: svc, repo: repo, store: store, sender: sender, progress: progress}
}

// withLocks builds regulation and course services over the same store but
// around a lock registry the test can hold.
func (e *testEnv) withLocks(locks *keylock.Registry) (RegulationService, CourseService) {
	deps := Deps{
		Repo:     e.repo,
		Orch:     txn.NewOrchestrator(&mockTransactor{store: e.store}, zap.NewNop()),
		Locks:    locks,
		Activity: NewActivity(e.svc.Audit, e.svc.Notification, zap.NewNop()),
		Logger:   zap.NewNop(),
	}
	return NewRegulationService(deps), NewCourseService(deps)
}

func regulationRequest(year int, programmeIDs ...string) *dto.CreateRegulationRequest {
	return &dto.CreateRegulationRequest{
		Title:         "R" + strconv.Itoa(year),
		Year:          year,
		ProgrammeIDs:  programmeIDs,
		CreditIDs:     []string{"credit-1"},
		GradeIDs:      []string{"grade-1"},
		EvaluationIDs: []string{"eval-1"},
	}
}

func (e *testEnv) createRegulation(t *testing.T, year int, programmeIDs ...string) *model.Regulation {
	t.Helper()
	reg, err := e.svc.Regulation.Create(context.Background(), regulationRequest(year, programmeIDs...), author)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return reg
}

// setRegulationStatus bypasses the workflow for test setup.
func (e *testEnv) setRegulationStatus(id string, status workflow.Status) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	reg := e.store.regulations[id]
	reg.Status = status
	e.store.regulations[id] = reg
}

func (e *testEnv) scheme(t *testing.T, regulationID, programmeID string) *model.ProgrammeRegulation {
	t.Helper()
	rec, err := e.repo.ProgrammeRegulation.GetByRegulationProgramme(context.Background(), regulationID, programmeID)
	if err != nil {
		t.Fatalf("programme regulation lookup failed: %v", err)
	}
	return rec
}

func (e *testEnv) updateScheme(id string, fn func(rec *model.ProgrammeRegulation)) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	rec := e.store.prgmRegs[id]
	fn(&rec)
	e.store.prgmRegs[id] = rec
}

func semester(n int) *int { return &n }

// seedCourse stores a course directly, bypassing validation.
func (e *testEnv) seedCourse(regulationID string, p model.Programme, code string, sem *int, status workflow.Status) model.Course {
	c := model.Course{
		ID:            "c-" + p.ID + "-" + code,
		RegulationID:  regulationID,
		Programme:     p.Info(),
		Department:    p.Department,
		Semester:      sem,
		Code:          code,
		Title:         "Course " + code,
		Type:          "Theory",
		Category:      "Core",
		Ltpc:          model.Ltpc{L: 3, T: 1, P: 0, C: 4},
		Prerequisites: []model.Prerequisite{},
		Status:        status,
		MappingStatus: workflow.Draft,
		Co:            map[string]string{},
		Mapping:       map[string]map[string]int{},
	}
	c.Stamp(author, time.Now())
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.courses[c.ID] = c
	return c
}

func (e *testEnv) courseStatus(id string) workflow.Status {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.courses[id].Status
}
