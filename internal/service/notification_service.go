package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/metrics"
)

const defaultMailConcurrency = 4

// NotificationService sends templated mails as tracked background jobs.
type NotificationService interface {
	// Notify records a MAIL_NOTIFICATION job and returns it at once; delivery
	// happens in the background and is reported on the job.
	Notify(ctx context.Context, n model.Notification, actor model.Actor) (*model.Job, error)
}

type notificationService struct {
	runner      *JobRunner
	sender      mail.Sender
	concurrency int
	logger      *zap.Logger
}

func NewNotificationService(runner *JobRunner, sender mail.Sender, concurrency int, logger *zap.Logger) NotificationService {
	if concurrency <= 0 {
		concurrency = defaultMailConcurrency
	}
	return &notificationService{runner: runner, sender: sender, concurrency: concurrency, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, n model.Notification, actor model.Actor) (*model.Job, error) {
	return s.runner.Start(ctx, model.JobMailNotification, actor, func(ctx context.Context, p *Progress) (model.JobSummary, error) {
		return s.dispatch(ctx, n, p)
	})
}

// dispatch delivers to each recipient independently; one failed recipient
// does not stop the others. The job errors only when nobody got the mail.
func (s *notificationService) dispatch(ctx context.Context, n model.Notification, p *Progress) (model.JobSummary, error) {
	var summary model.JobSummary

	subject, body, err := mail.Render(n.Template, n.Params)
	if err != nil {
		return summary, err
	}

	recipients := nonEmpty(pipeline.Unique(n.Recipients))
	p.SetRecordCount(ctx, len(recipients))

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, to := range recipients {
		g.Go(func() error {
			sendErr := s.sender.Send(ctx, mail.Message{To: to, Subject: subject, Body: body})

			mu.Lock()
			defer mu.Unlock()
			if sendErr != nil {
				summary.Failed = append(summary.Failed, to)
				metrics.MailsTotal.WithLabelValues(n.Template, "failed").Inc()
			} else {
				summary.Success = append(summary.Success, to)
				metrics.MailsTotal.WithLabelValues(n.Template, "sent").Inc()
			}
			done++
			p.Done(ctx, done)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(summary.Success)
	sort.Strings(summary.Failed)
	if len(summary.Success) == 0 && len(summary.Failed) > 0 {
		return summary, fmt.Errorf("mail delivery failed for all %d recipients", len(summary.Failed))
	}
	return summary, nil
}
