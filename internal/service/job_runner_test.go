package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
)

func setupTestRunner() (*JobRunner, *memStore, *mockProgressStore) {
	store := newMemStore()
	progress := newMockProgressStore()
	return NewJobRunner(&mockJobRepo{store}, progress, zap.NewNop()), store, progress
}

func storedJob(t *testing.T, store *memStore, id string) model.Job {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	job, ok := store.jobs[id]
	if !ok {
		t.Fatalf("job %s not stored", id)
	}
	return job
}

// ── JobRunner ──

func TestJobRunner_Start_Completes(t *testing.T) {
	runner, store, progress := setupTestRunner()

	job, err := runner.Start(context.Background(), model.JobSyncProgrammes, author, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		p.SetRecordCount(ctx, 4)
		p.Done(ctx, 2)
		return model.JobSummary{Inserted: 3}, nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if job.Status != model.JobNotStarted || job.CreatedBy != author.ID {
		t.Errorf("unexpected snapshot %+v", job)
	}
	runner.Wait()

	done := storedJob(t, store, job.ID)
	if done.Status != model.JobCompleted || done.CompletionPercentage != 100 {
		t.Errorf("expected completed at 100%%, got %s %d%%", done.Status, done.CompletionPercentage)
	}
	if done.Summary.Inserted != 3 || done.RecordCount != 4 {
		t.Errorf("unexpected result: summary=%+v records=%d", done.Summary, done.RecordCount)
	}
	if done.Dates.Started == nil || done.Dates.Finished == nil {
		t.Error("start and finish dates should be set")
	}
	if live, ok, _ := progress.GetJobProgress(context.Background(), job.ID); !ok || live.Percentage != 100 {
		t.Errorf("progress mirror should show completion, got %+v", live)
	}
}

func TestJobRunner_Start_Errored(t *testing.T) {
	runner, store, _ := setupTestRunner()

	job, _ := runner.Start(context.Background(), model.JobSyncDepartments, author, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		return model.JobSummary{Removed: 1}, errors.New("upstream unavailable")
	})
	runner.Wait()

	done := storedJob(t, store, job.ID)
	if done.Status != model.JobErrored || done.Reason != "upstream unavailable" {
		t.Errorf("expected errored job with reason, got %s %q", done.Status, done.Reason)
	}
	if done.Summary.Removed != 1 {
		t.Error("summary is kept on failure")
	}
}

func TestJobRunner_Start_Panic(t *testing.T) {
	runner, store, _ := setupTestRunner()

	job, _ := runner.Start(context.Background(), model.JobMoveToNextSemester, author, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		panic("nil scheme")
	})
	runner.Wait()

	if done := storedJob(t, store, job.ID); done.Status != model.JobErrored {
		t.Errorf("a panicking job should be errored, got %s", done.Status)
	}
}

func TestJobRunner_Start_OutlivesCaller(t *testing.T) {
	runner, store, _ := setupTestRunner()
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	job, _ := runner.Start(ctx, model.JobSyncBatchYears, author, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		<-release
		return model.JobSummary{}, ctx.Err()
	})
	cancel()
	close(release)
	runner.Wait()

	if done := storedJob(t, store, job.ID); done.Status != model.JobCompleted {
		t.Errorf("cancelling the request should not cancel the job, got %s", done.Status)
	}
}

func TestProgress_Done_CapsBelowCompletion(t *testing.T) {
	runner, _, progress := setupTestRunner()

	job, _ := runner.Start(context.Background(), model.JobSyncProgrammes, author, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		p.SetRecordCount(ctx, 2)
		p.Done(ctx, 2)
		live, _, _ := progress.GetJobProgress(ctx, p.job.ID)
		if live.Percentage != 99 {
			return model.JobSummary{}, errors.New("running job reached 100")
		}
		return model.JobSummary{}, nil
	})
	runner.Wait()

	if live, _, _ := progress.GetJobProgress(context.Background(), job.ID); live.Status != string(model.JobCompleted) {
		t.Errorf("expected completed, got %+v", live)
	}
}

// ── JobService ──

func TestJobService_Get_NotFound(t *testing.T) {
	e := setupTestService()

	_, err := e.svc.Job.Get(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobService_Get_LiveProgress(t *testing.T) {
	e := setupTestService()
	ctx := context.Background()
	e.store.jobs["j-1"] = model.Job{ID: "j-1", Name: model.JobSyncProgrammes, Status: model.JobInProgress, CompletionPercentage: 10}
	_ = e.progress.SetJobProgress(ctx, "j-1", string(model.JobInProgress), 60, progressTTL)

	job, err := e.svc.Job.Get(ctx, "j-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if job.CompletionPercentage != 60 || !job.Live {
		t.Errorf("expected live 60%%, got %d live=%v", job.CompletionPercentage, job.Live)
	}
}

// ── NotificationService ──

func TestNotificationService_Notify_PartialFailure(t *testing.T) {
	runner, store, _ := setupTestRunner()
	sender := newMockSender()
	sender.fail["bad@college.edu"] = errors.New("mailbox full")
	svc := NewNotificationService(runner, sender, 2, zap.NewNop())

	job, err := svc.Notify(context.Background(), model.Notification{
		Recipients: []string{"b@college.edu", "bad@college.edu", "a@college.edu", "a@college.edu", ""},
		Template:   mail.TemplateStatusChanged,
		Params:     map[string]string{"Entity": "Regulation", "Title": "R2024", "Status": "Approved", "Actor": "Approver"},
	}, approver)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	runner.Wait()

	done := storedJob(t, store, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("one failed recipient should not fail the job, got %s", done.Status)
	}
	if !slices.Equal(done.Summary.Success, []string{"a@college.edu", "b@college.edu"}) {
		t.Errorf("unexpected successes %v", done.Summary.Success)
	}
	if !slices.Equal(done.Summary.Failed, []string{"bad@college.edu"}) {
		t.Errorf("unexpected failures %v", done.Summary.Failed)
	}
}

func TestNotificationService_Notify_AllFail(t *testing.T) {
	runner, store, _ := setupTestRunner()
	sender := newMockSender()
	sender.fail["a@college.edu"] = errors.New("relay denied")
	sender.fail["b@college.edu"] = errors.New("relay denied")
	svc := NewNotificationService(runner, sender, 0, zap.NewNop())

	job, _ := svc.Notify(context.Background(), model.Notification{
		Recipients: []string{"a@college.edu", "b@college.edu"},
		Template:   mail.TemplateSemesterMoved,
		Params:     map[string]string{"Count": "3"},
	}, author)
	runner.Wait()

	done := storedJob(t, store, job.ID)
	if done.Status != model.JobErrored {
		t.Errorf("expected errored job, got %s", done.Status)
	}
	if len(done.Summary.Failed) != 2 {
		t.Errorf("expected both recipients in the failure list, got %v", done.Summary.Failed)
	}
}

func TestNotificationService_Notify_UnknownTemplate(t *testing.T) {
	runner, store, _ := setupTestRunner()
	svc := NewNotificationService(runner, newMockSender(), 1, zap.NewNop())

	job, _ := svc.Notify(context.Background(), model.Notification{Recipients: []string{"a@college.edu"}, Template: "nope"}, author)
	runner.Wait()

	if done := storedJob(t, store, job.ID); done.Status != model.JobErrored {
		t.Errorf("expected errored job, got %s", done.Status)
	}
}
