package service

import (
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/txn"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/keylock"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/mail"
)

// Service aggregates every service.
type Service struct {
	Regulation          RegulationService
	ProgrammeRegulation ProgrammeRegulationService
	Course              CourseService
	BatchYear           RegulationBatchYearService
	Sync                SyncService
	Job                 JobService
	Audit               AuditService
	Notification        NotificationService
	Calendar            AcademicCalendarService
	Export              ExportService

	// Runner is exposed so the CLI can wait for the jobs it started.
	Runner *JobRunner
}

// Deps are the collaborators shared by the state-changing services.
type Deps struct {
	Repo     *repository.Repository
	Orch     *txn.Orchestrator
	Locks    *keylock.Registry
	Activity Activity
	Logger   *zap.Logger
}

// NewService wires the services. progress may be nil.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	tx txn.Transactor,
	progress ProgressStore,
	sender mail.Sender,
	logger *zap.Logger,
) *Service {
	runner := NewJobRunner(repo.Job, progress, logger)
	audit := NewAuditService(repo, logger)
	notification := NewNotificationService(runner, sender, cfg.Mail.Concurrency, logger)

	deps := Deps{
		Repo:     repo,
		Orch:     txn.NewOrchestrator(tx, logger),
		Locks:    keylock.New(),
		Activity: NewActivity(audit, notification, logger),
		Logger:   logger,
	}

	return &Service{
		Regulation:          NewRegulationService(deps),
		ProgrammeRegulation: NewProgrammeRegulationService(deps),
		Course:              NewCourseService(deps),
		BatchYear:           NewRegulationBatchYearService(deps, runner, notification),
		Sync:                NewSyncService(deps, runner),
		Job:                 NewJobService(repo, progress, logger),
		Audit:               audit,
		Notification:        notification,
		Calendar:            NewAcademicCalendarService(repo, logger),
		Export:              NewExportService(repo, logger),
		Runner:              runner,
	}
}
