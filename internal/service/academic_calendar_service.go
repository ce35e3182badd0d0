package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
)

// ── academic calendar errors ──

var ErrCalendarNotConfigured = apperrors.NotFound("The academic calendar has not been configured.")

// AcademicCalendarService the institution-wide term the semester rollover
// works from.
type AcademicCalendarService interface {
	Get(ctx context.Context) (*model.AcademicCalendar, error)
	Update(ctx context.Context, req *dto.UpdateAcademicCalendarRequest, actor model.Actor) (*model.AcademicCalendar, error)
}

type academicCalendarService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

func NewAcademicCalendarService(repo *repository.Repository, logger *zap.Logger) AcademicCalendarService {
	return &academicCalendarService{repo: repo, audit: NewAuditService(repo, logger), logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *academicCalendarService) Get(ctx context.Context) (*model.AcademicCalendar, error) {
	cal, err := s.repo.Settings.GetCalendar(ctx)
	if err != nil {
		err = notFoundOr(err, ErrCalendarNotConfigured)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load academic calendar", zap.Error(err))
		}
		return nil, err
	}
	return cal, nil
}

// ────────────────────── Update ──────────────────────

func (s *academicCalendarService) Update(ctx context.Context, req *dto.UpdateAcademicCalendarRequest, actor model.Actor) (*model.AcademicCalendar, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	cal, err := s.Get(ctx)
	if err != nil {
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			return nil, err
		}
		cal = &model.AcademicCalendar{}
	}
	cal.ActiveBatchYear = req.ActiveBatchYear
	cal.AcademicSemester = req.AcademicSemester
	cal.Stamp(actor, time.Now())

	if err := s.repo.Settings.SaveCalendar(ctx, cal); err != nil {
		s.logger.Error("failed to save academic calendar", zap.Error(err))
		return nil, err
	}

	if err := s.audit.Log(ctx, EntityAcademicCalendar, model.AcademicCalendarID, "update", actor,
		fmt.Sprintf("Active batch year %d, semester %d", cal.ActiveBatchYear, cal.AcademicSemester)); err != nil {
		s.logger.Error("audit log failed", zap.String("entity", EntityAcademicCalendar), zap.Error(err))
	}
	return cal, nil
}
