package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/pipeline"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
)

// Entity kinds written to the audit log.
const (
	EntityRegulation          = "regulation"
	EntityProgrammeRegulation = "programmeRegulation"
	EntityCourse              = "course"
	EntityCourseOutcome       = "courseOutcome"
	EntityBatchYear           = "regulationBatchYear"
	EntityAcademicCalendar    = "academicCalendar"
)

// Event describes one committed change.
type Event struct {
	Entity   string
	EntityID string
	Action   string
	Message  string
	Title    string

	// Status is set for transitions and triggers a notification.
	Status     workflow.Status
	Reason     string
	Recipients []string

	// NotifyOnly skips the audit entry, for batches audited per record.
	NotifyOnly bool
}

// Activity records the side effects of a committed change: an audit entry
// and, for transitions, a notification job. Failures are logged and never
// reach the caller; the change itself already succeeded.
type Activity interface {
	Record(ctx context.Context, actor model.Actor, ev Event)
}

type activity struct {
	audit    AuditService
	notifier NotificationService
	logger   *zap.Logger
}

func NewActivity(audit AuditService, notifier NotificationService, logger *zap.Logger) Activity {
	return &activity{audit: audit, notifier: notifier, logger: logger}
}

func (a *activity) Record(ctx context.Context, actor model.Actor, ev Event) {
	if !ev.NotifyOnly {
		if err := a.audit.Log(ctx, ev.Entity, ev.EntityID, ev.Action, actor, ev.Message); err != nil {
			a.logger.Error("audit log failed",
				zap.String("entity", ev.Entity), zap.String("entity_id", ev.EntityID), zap.Error(err))
		}
	}

	if ev.Status == "" {
		return
	}
	recipients := nonEmpty(pipeline.Unique(append(ev.Recipients, actor.Email)))
	if len(recipients) == 0 {
		return
	}

	_, err := a.notifier.Notify(ctx, model.Notification{
		Recipients: recipients,
		Template:   mail.TemplateStatusChanged,
		Params: map[string]string{
			"Entity": entityLabel(ev.Entity),
			"Title":  ev.Title,
			"Status": ev.Status.Display(),
			"Actor":  actor.Name,
			"Reason": ev.Reason,
		},
	}, actor)
	if err != nil {
		a.logger.Error("notification job not created",
			zap.String("entity", ev.Entity), zap.String("entity_id", ev.EntityID), zap.Error(err))
	}
}

func entityLabel(entity string) string {
	switch entity {
	case EntityRegulation:
		return "Regulation"
	case EntityProgrammeRegulation:
		return "Programme outcome mapping"
	case EntityCourse:
		return "Course"
	case EntityCourseOutcome:
		return "Course outcome mapping"
	}
	return entity
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
