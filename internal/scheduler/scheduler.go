// Package scheduler runs the semester rollover periodically inside the API
// process.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
)

// Rollover is the part of the batch year service the scheduler drives.
type Rollover interface {
	MoveToNextSemester(ctx context.Context, actor model.Actor) (*model.Job, error)
}

// Scheduler triggers MoveToNextSemester every interval until stopped. The
// first run happens one interval after Start.
type Scheduler struct {
	rollover Rollover
	interval time.Duration
	actor    model.Actor
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(rollover Rollover, interval time.Duration, actor model.Actor, logger *zap.Logger) *Scheduler {
	return &Scheduler{rollover: rollover, interval: interval, actor: actor, logger: logger}
}

// Start launches the loop. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
	s.logger.Info("rollover scheduler started", zap.Duration("interval", s.interval))
}

// Stop ends the loop and waits for a tick in progress. Jobs already started
// keep running on the job runner.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
}

// RunOnce starts one rollover job and returns it, or nil when it could not
// be started.
func (s *Scheduler) RunOnce(ctx context.Context) *model.Job {
	job, err := s.rollover.MoveToNextSemester(ctx, s.actor)
	switch {
	case err == nil:
		s.logger.Info("rollover job started", zap.String("job_id", job.ID))
		return job
	case errors.Is(err, service.ErrCalendarNotConfigured):
		s.logger.Warn("rollover skipped, academic calendar not configured")
	default:
		s.logger.Error("failed to start rollover job", zap.Error(err))
	}
	return nil
}
