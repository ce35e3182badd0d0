package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/keylock"
)

// ── Create ──

func TestRegulationService_Create_Success(t *testing.T) {
	e := setupTestService()

	reg := e.createRegulation(t, 2024, beCSE.ID, beECE.ID, beCSE.ID)
	if reg.Status != workflow.Draft {
		t.Errorf("expected DRAFT, got %s", reg.Status)
	}
	if reg.Version != 1 {
		t.Errorf("expected version 1, got %d", reg.Version)
	}
	if len(reg.ProgrammeIDs) != 2 {
		t.Errorf("duplicate programme ids should collapse, got %v", reg.ProgrammeIDs)
	}
	if reg.CreatedByEmail != author.Email {
		t.Errorf("expected creator email %s, got %s", author.Email, reg.CreatedByEmail)
	}

	rec := e.scheme(t, reg.ID, beECE.ID)
	if rec.PoStatus != workflow.Draft {
		t.Errorf("expected programme regulation at DRAFT, got %s", rec.PoStatus)
	}
	if !slices.Contains(e.store.auditActions(reg.ID), "create") {
		t.Error("expected a create audit entry")
	}
}

func TestRegulationService_Create_VersionFollowsPeers(t *testing.T) {
	e := setupTestService()

	first := e.createRegulation(t, 2024, beCSE.ID)
	second := e.createRegulation(t, 2024, beCSE.ID, beECE.ID)
	other := e.createRegulation(t, 2024, meCSE.ID)
	nextYear := e.createRegulation(t, 2025, beCSE.ID)

	if first.Version != 1 || second.Version != 2 {
		t.Errorf("expected versions 1 and 2, got %d and %d", first.Version, second.Version)
	}
	if other.Version != 1 {
		t.Errorf("disjoint programme set should start at 1, got %d", other.Version)
	}
	if nextYear.Version != 1 {
		t.Errorf("another year should start at 1, got %d", nextYear.Version)
	}
}

func TestRegulationService_Create_UnknownProgramme(t *testing.T) {
	e := setupTestService()

	_, err := e.svc.Regulation.Create(context.Background(), regulationRequest(2024, beCSE.ID, "p-missing"), author)
	if !apperrors.HasKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(e.store.regulations) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestRegulationService_Create_InvalidRequest(t *testing.T) {
	e := setupTestService()

	req := regulationRequest(1999, beCSE.ID)
	req.Title = ""
	_, err := e.svc.Regulation.Create(context.Background(), req, author)
	if err == nil {
		t.Fatal("expected a validation failure")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an AppError, got %T", err)
	}
}

func TestRegulationService_Create_RollsBackOnFailure(t *testing.T) {
	e := setupTestService()
	boom := errors.New("write conflict")
	e.store.failOn("ProgrammeRegulation.CreateMany", boom)

	_, err := e.svc.Regulation.Create(context.Background(), regulationRequest(2024, beCSE.ID), author)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if len(e.store.regulations) != 0 {
		t.Error("regulation must not survive the rollback")
	}
	if len(e.store.prgmRegs) != 0 {
		t.Error("programme regulations must not survive the rollback")
	}
}

// ── Update ──

func TestRegulationService_Update_AddsAndRemovesProgrammes(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	reg := e.createRegulation(t, 2024, beCSE.ID, beECE.ID)
	e.seedCourse(reg.ID, beECE, "EC101", semester(1), workflow.Draft)

	updated, err := e.svc.Regulation.Update(ctx, reg.ID, regulationRequest(2024, beCSE.ID, meCSE.ID), author)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !slices.Equal(updated.ProgrammeIDs, []string{beCSE.ID, meCSE.ID}) {
		t.Errorf("unexpected programmes %v", updated.ProgrammeIDs)
	}
	e.scheme(t, reg.ID, meCSE.ID)
	if _, err := e.repo.ProgrammeRegulation.GetByRegulationProgramme(ctx, reg.ID, beECE.ID); err == nil {
		t.Error("removed programme should lose its programme regulation")
	}
	if _, ok := e.store.courses["c-"+beECE.ID+"-EC101"]; ok {
		t.Error("removed programme should lose its courses")
	}
}

func TestRegulationService_Update_InReview(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.setRegulationStatus(reg.ID, workflow.WaitingForApproval)

	_, err := e.svc.Regulation.Update(context.Background(), reg.ID, regulationRequest(2024, beCSE.ID), author)
	if !errors.Is(err, ErrRegulationInReview) {
		t.Errorf("expected ErrRegulationInReview, got %v", err)
	}
}

func TestRegulationService_Update_ApprovedLocks(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	reg := e.createRegulation(t, 2024, beCSE.ID, beECE.ID)
	e.setRegulationStatus(reg.ID, workflow.Approved)

	req := regulationRequest(2024, beCSE.ID, beECE.ID)
	req.Title = "Renamed"
	if _, err := e.svc.Regulation.Update(ctx, reg.ID, req, author); !errors.Is(err, ErrRegulationFieldsLocked) {
		t.Errorf("expected ErrRegulationFieldsLocked, got %v", err)
	}

	if _, err := e.svc.Regulation.Update(ctx, reg.ID, regulationRequest(2024, beCSE.ID), author); !errors.Is(err, ErrProgrammeRemovalLocked) {
		t.Errorf("expected ErrProgrammeRemovalLocked, got %v", err)
	}

	updated, err := e.svc.Regulation.Update(ctx, reg.ID, regulationRequest(2024, beCSE.ID, beECE.ID, meCSE.ID), author)
	if err != nil {
		t.Fatalf("adding a programme to an approved regulation should succeed: %v", err)
	}
	if updated.Version != reg.Version {
		t.Errorf("approved regulation keeps its version, got %d", updated.Version)
	}
	if updated.Status != workflow.Approved {
		t.Errorf("status should stay APPROVED, got %s", updated.Status)
	}
}

// A year change recomputes the version under the same lock Create takes, so
// a peer created while the update waits is counted.
func TestRegulationService_Update_VersionUnderYearLock(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	locks := keylock.New()
	regs, _ := e.withLocks(locks)

	moving := e.createRegulation(t, 2023, beCSE.ID)
	e.createRegulation(t, 2024, beCSE.ID)

	year := locks.Mutex(versionKey(2024))
	year.Lock()
	type result struct {
		reg *model.Regulation
		err error
	}
	done := make(chan result, 1)
	go func() {
		reg, err := regs.Update(ctx, moving.ID, regulationRequest(2024, beCSE.ID), author)
		done <- result{reg, err}
	}()

	select {
	case <-done:
		year.Unlock()
		t.Fatal("Update should wait for the year lock")
	case <-time.After(50 * time.Millisecond):
	}
	peer := e.createRegulation(t, 2024, beCSE.ID)
	year.Unlock()

	res := <-done
	if res.err != nil {
		t.Fatalf("Update failed: %v", res.err)
	}
	if peer.Version != 2 || res.reg.Version != 3 {
		t.Errorf("expected versions 2 and 3, got %d and %d", peer.Version, res.reg.Version)
	}
}

// ── Delete ──

func TestRegulationService_Delete_Cascades(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.seedCourse(reg.ID, beCSE, "CS101", semester(1), workflow.Draft)

	if err := e.svc.Regulation.Delete(context.Background(), reg.ID, author); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(e.store.regulations) != 0 || len(e.store.prgmRegs) != 0 || len(e.store.courses) != 0 {
		t.Error("regulation and its dependents should be gone")
	}
}

// Delete waits for in-flight course writes of its programmes, so a course
// inserted meanwhile is removed by the cascade and later inserts find no scheme.
func TestRegulationService_Delete_WaitsForCourseWrites(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	locks := keylock.New()
	regs, courses := e.withLocks(locks)
	reg := e.createRegulation(t, 2024, beCSE.ID)

	courseLock := locks.Mutex(keylock.CourseKey(reg.ID, beCSE.ID))
	courseLock.Lock()
	done := make(chan error, 1)
	go func() { done <- regs.Delete(ctx, reg.ID, author) }()

	select {
	case err := <-done:
		courseLock.Unlock()
		t.Fatalf("Delete should wait for course writes, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	e.seedCourse(reg.ID, beCSE, "CS101", semester(1), workflow.Draft)
	courseLock.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(e.store.courses) != 0 {
		t.Error("a course written during the delete must not survive it")
	}
	_, err := courses.Create(ctx, courseRequest(reg.ID, beCSE.ID, "CS102", semester(1)), author)
	if !errors.Is(err, ErrProgrammeRegulationNotFound) {
		t.Errorf("expected ErrProgrammeRegulationNotFound, got %v", err)
	}
}

func TestRegulationService_Delete_NotDraft(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.setRegulationStatus(reg.ID, workflow.RequestedChanges)

	err := e.svc.Regulation.Delete(context.Background(), reg.ID, author)
	if !errors.Is(err, ErrRegulationNotDraft) {
		t.Errorf("expected ErrRegulationNotDraft, got %v", err)
	}
	if len(e.store.regulations) != 1 {
		t.Error("regulation should still exist")
	}
}

func TestRegulationService_Delete_NotFound(t *testing.T) {
	e := setupTestService()

	err := e.svc.Regulation.Delete(context.Background(), "missing", author)
	if !errors.Is(err, ErrRegulationNotFound) {
		t.Errorf("expected ErrRegulationNotFound, got %v", err)
	}
}

// ── Clone ──

func TestRegulationService_Clone_CopiesSchemes(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	src := e.createRegulation(t, 2024, beCSE.ID, beECE.ID)
	e.setRegulationStatus(src.ID, workflow.Approved)

	rec := e.scheme(t, src.ID, beCSE.ID)
	e.updateScheme(rec.ID, func(r *model.ProgrammeRegulation) {
		r.Po = map[string]string{"PO1": "Engineering knowledge"}
		r.PoStatus = workflow.Approved
	})
	base := e.seedCourse(src.ID, beCSE, "CS101", semester(1), workflow.Confirmed)
	next := e.seedCourse(src.ID, beCSE, "CS201", semester(3), workflow.Confirmed)
	e.store.mu.Lock()
	next.Prerequisites = []model.Prerequisite{{CourseID: base.ID, CourseCode: base.Code}}
	e.store.courses[next.ID] = next
	e.store.mu.Unlock()
	e.seedCourse(src.ID, beECE, "EC101", semester(1), workflow.Confirmed)

	clone, err := e.svc.Regulation.Clone(ctx, src.ID, &dto.CloneRegulationRequest{
		Title:        "R2025",
		Year:         2025,
		ProgrammeIDs: []string{beCSE.ID},
	}, author)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if clone.Status != workflow.Draft || clone.ClonedFrom != src.ID {
		t.Errorf("unexpected clone header: status=%s cloned_from=%s", clone.Status, clone.ClonedFrom)
	}

	cloned := e.scheme(t, clone.ID, beCSE.ID)
	if cloned.Po["PO1"] != "Engineering knowledge" {
		t.Error("outcomes should be copied")
	}
	if cloned.PoStatus != workflow.Draft {
		t.Errorf("cloned mapping should restart at DRAFT, got %s", cloned.PoStatus)
	}

	courses, _ := e.repo.Course.Find(ctx, model.CourseFilter{RegulationID: clone.ID})
	if len(courses) != 2 {
		t.Fatalf("expected 2 cloned courses, got %d", len(courses))
	}
	byCode := map[string]model.Course{}
	for _, c := range courses {
		if c.Status != workflow.Draft {
			t.Errorf("cloned course %s should be DRAFT, got %s", c.Code, c.Status)
		}
		byCode[c.Code] = c
	}
	pre := byCode["CS201"].Prerequisites
	if len(pre) != 1 || pre[0].CourseID != byCode["CS101"].ID {
		t.Errorf("prerequisite should point at the cloned course, got %+v", pre)
	}
}

// ── Get ──

func TestRegulationService_Get_DerivedStatus(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID, beECE.ID)
	e.seedCourse(reg.ID, beCSE, "CS101", semester(1), workflow.Approved)
	e.seedCourse(reg.ID, beCSE, "CS102", semester(1), workflow.Confirmed)

	detail, err := e.svc.Regulation.Get(context.Background(), reg.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got := map[string]workflow.Status{}
	for _, p := range detail.Programmes {
		got[p.Programme.ID] = p.CourseStatus
	}
	if got[beCSE.ID] != workflow.PartiallyVerified {
		t.Errorf("expected PARTIALLY_VERIFIED for %s, got %s", beCSE.ID, got[beCSE.ID])
	}
	if got[beECE.ID] != workflow.Pending {
		t.Errorf("programme without courses should be PENDING, got %s", got[beECE.ID])
	}
}

// ── ChangeStatus ──

func TestRegulationService_ChangeStatus_ApproveNotifies(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	reg := e.createRegulation(t, 2024, beCSE.ID)

	if _, err := e.svc.Regulation.ChangeStatus(ctx, reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.WaitingForApproval)}, author, authorRoles); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	updated, err := e.svc.Regulation.ChangeStatus(ctx, reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.Approved)}, approver, approverRoles)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if updated.Status != workflow.Approved {
		t.Errorf("expected APPROVED, got %s", updated.Status)
	}

	e.svc.Runner.Wait()
	got := e.sender.recipients()
	want := []string{approver.Email, author.Email, author.Email}
	if !slices.Equal(got, want) {
		t.Errorf("expected mails to %v, got %v", want, got)
	}
	if n := len(e.store.jobsNamed(model.JobMailNotification)); n != 2 {
		t.Errorf("expected one notification job per transition, got %d", n)
	}
}

func TestRegulationService_ChangeStatus_Denied(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)

	_, err := e.svc.Regulation.ChangeStatus(context.Background(), reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.WaitingForApproval)}, approver, approverRoles)
	if !apperrors.HasKind(err, apperrors.KindDenied) {
		t.Errorf("approver cannot submit, got %v", err)
	}
	if e.store.regulations[reg.ID].Status != workflow.Draft {
		t.Error("status must be unchanged")
	}
}

func TestRegulationService_ChangeStatus_SelfLoopDenied(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)

	_, err := e.svc.Regulation.ChangeStatus(context.Background(), reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.Draft)}, author, workflow.NewRoleSet(workflow.RoleAdmin))
	if !apperrors.HasKind(err, apperrors.KindDenied) {
		t.Errorf("expected denial, got %v", err)
	}
}

func TestRegulationService_ChangeStatus_ApprovedIsFinal(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.setRegulationStatus(reg.ID, workflow.Approved)

	_, err := e.svc.Regulation.ChangeStatus(context.Background(), reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.Draft)}, author, workflow.NewRoleSet(workflow.RoleAdmin))
	if !apperrors.HasKind(err, apperrors.KindDenied) {
		t.Errorf("expected denial, got %v", err)
	}
}

func TestRegulationService_ChangeStatus_ReasonRequired(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.setRegulationStatus(reg.ID, workflow.WaitingForApproval)

	_, err := e.svc.Regulation.ChangeStatus(ctx, reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.RequestedChanges)}, approver, approverRoles)
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	updated, err := e.svc.Regulation.ChangeStatus(ctx, reg.ID, &dto.ChangeStatusRequest{Status: string(workflow.RequestedChanges), Reason: "Fix credits"}, approver, approverRoles)
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if updated.Reason != "Fix credits" {
		t.Errorf("expected reason to be stored, got %q", updated.Reason)
	}
}

func TestRegulationService_ChangeStatus_UnknownStatus(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)

	_, err := e.svc.Regulation.ChangeStatus(context.Background(), reg.ID, &dto.ChangeStatusRequest{Status: "PUBLISHED"}, author, authorRoles)
	if !apperrors.HasKind(err, apperrors.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRegulationService_AllowedTransitions(t *testing.T) {
	e := setupTestService()
	reg := e.createRegulation(t, 2024, beCSE.ID)
	e.setRegulationStatus(reg.ID, workflow.WaitingForApproval)

	opts, err := e.svc.Regulation.AllowedTransitions(context.Background(), reg.ID, approverRoles)
	if err != nil {
		t.Fatalf("AllowedTransitions failed: %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("approver should see two options, got %+v", opts)
	}

	opts, _ = e.svc.Regulation.AllowedTransitions(context.Background(), reg.ID, authorRoles)
	if len(opts) != 0 {
		t.Errorf("author should see none, got %+v", opts)
	}
}
