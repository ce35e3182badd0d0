package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
)

// ── job errors ──

var ErrJobNotFound = apperrors.NotFound("Job not found.")

// JobService reads background job records.
type JobService interface {
	Get(ctx context.Context, id string) (*dto.JobResponse, error)
	List(ctx context.Context, f model.JobFilter) ([]model.Job, int64, error)
}

type jobService struct {
	repo     *repository.Repository
	progress ProgressStore
	logger   *zap.Logger
}

func NewJobService(repo *repository.Repository, progress ProgressStore, logger *zap.Logger) JobService {
	return &jobService{repo: repo, progress: progress, logger: logger}
}

// Get returns the stored job. While the job is running the stored
// percentage lags behind; the cached one is used instead when present.
func (s *jobService) Get(ctx context.Context, id string) (*dto.JobResponse, error) {
	job, err := s.repo.Job.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to load job", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := &dto.JobResponse{Job: *job}
	if job.Status.Terminal() || s.progress == nil {
		return resp, nil
	}

	live, ok, err := s.progress.GetJobProgress(ctx, id)
	if err != nil {
		s.logger.Warn("job progress cache unavailable", zap.String("id", id), zap.Error(err))
		return resp, nil
	}
	if ok && live.Percentage > resp.CompletionPercentage {
		resp.CompletionPercentage = live.Percentage
		resp.Status = model.JobStatus(live.Status)
		resp.Live = true
	}
	return resp, nil
}

func (s *jobService) List(ctx context.Context, f model.JobFilter) ([]model.Job, int64, error) {
	jobs, total, err := s.repo.Job.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list jobs", zap.Error(err))
		return nil, 0, err
	}
	return jobs, total, nil
}
