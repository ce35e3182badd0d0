package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/metrics"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/redis"
)

// progressTTL bounds how long a mirrored progress entry outlives its job.
const progressTTL = 24 * time.Hour

// ProgressStore mirrors live job progress for polling.
type ProgressStore interface {
	SetJobProgress(ctx context.Context, jobID, status string, percentage int, ttl time.Duration) error
	GetJobProgress(ctx context.Context, jobID string) (redis.JobProgress, bool, error)
}

// JobFunc is the body of a background job. The summary it returns is stored
// on the job whether or not it fails.
type JobFunc func(ctx context.Context, p *Progress) (model.JobSummary, error)

// JobRunner creates Job records and drives them through
// NotStarted → InProgress → Completed | Errored.
type JobRunner struct {
	jobs     repository.JobRepository
	progress ProgressStore
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewJobRunner(jobs repository.JobRepository, progress ProgressStore, logger *zap.Logger) *JobRunner {
	return &JobRunner{jobs: jobs, progress: progress, logger: logger}
}

// Start records a NotStarted job and runs fn in the background. The returned
// job is a snapshot taken before fn starts. fn does not inherit the caller's
// cancellation.
func (r *JobRunner) Start(ctx context.Context, name model.JobName, actor model.Actor, fn JobFunc) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    model.JobNotStarted,
		Dates:     model.JobDates{Created: time.Now()},
		CreatedBy: actor.ID,
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		r.logger.Error("failed to create job", zap.String("name", string(name)), zap.Error(err))
		return nil, err
	}
	r.mirror(ctx, job)
	snapshot := *job

	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(bg, job, fn)
	}()
	return &snapshot, nil
}

// Wait blocks until every started job has finished.
func (r *JobRunner) Wait() {
	r.wg.Wait()
}

func (r *JobRunner) run(ctx context.Context, job *model.Job, fn JobFunc) {
	logger := r.logger.With(zap.String("job_id", job.ID), zap.String("name", string(job.Name)))

	started := time.Now()
	job.Status = model.JobInProgress
	job.Dates.Started = &started
	r.save(ctx, job)
	logger.Info("job started")

	summary, err := r.call(ctx, job, fn)

	finished := time.Now()
	job.Dates.Finished = &finished
	job.Summary = summary
	if err != nil {
		job.Status = model.JobErrored
		job.Reason = err.Error()
		logger.Error("job errored", zap.Error(err))
	} else {
		job.Status = model.JobCompleted
		job.CompletionPercentage = 100
		logger.Info("job completed", zap.Duration("took", finished.Sub(started)))
	}
	r.save(ctx, job)
	metrics.JobsTotal.WithLabelValues(string(job.Name), string(job.Status)).Inc()
}

// call runs fn and turns a panic into a job error.
func (r *JobRunner) call(ctx context.Context, job *model.Job, fn JobFunc) (summary model.JobSummary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return fn(ctx, &Progress{runner: r, job: job})
}

func (r *JobRunner) save(ctx context.Context, job *model.Job) {
	if err := r.jobs.Save(ctx, job); err != nil {
		r.logger.Error("failed to save job", zap.String("job_id", job.ID), zap.Error(err))
	}
	r.mirror(ctx, job)
}

func (r *JobRunner) mirror(ctx context.Context, job *model.Job) {
	if r.progress == nil {
		return
	}
	if err := r.progress.SetJobProgress(ctx, job.ID, string(job.Status), job.CompletionPercentage, progressTTL); err != nil {
		r.logger.Warn("job progress not mirrored", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Progress lets a running job report how far it got.
type Progress struct {
	runner *JobRunner
	job    *model.Job
}

// SetRecordCount records how many records the job will process.
func (p *Progress) SetRecordCount(ctx context.Context, n int) {
	p.job.RecordCount = n
	p.runner.save(ctx, p.job)
}

// Done reports that done of RecordCount records are processed.
func (p *Progress) Done(ctx context.Context, done int) {
	if p.job.RecordCount <= 0 {
		return
	}
	pct := done * 100 / p.job.RecordCount
	if pct > 99 {
		// 100 is reserved for the completed state.
		pct = 99
	}
	if pct == p.job.CompletionPercentage {
		return
	}
	p.job.CompletionPercentage = pct
	p.runner.mirror(ctx, p.job)
}
