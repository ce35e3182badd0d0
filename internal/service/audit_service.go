package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
)

// AuditService append-only record of state changes.
type AuditService interface {
	Log(ctx context.Context, entity, entityID, action string, actor model.Actor, message string) error
	List(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Log(ctx context.Context, entity, entityID, action string, actor model.Actor, message string) error {
	name := actor.Name
	if name == "" {
		name = actor.ID
	}
	return s.repo.Audit.Create(ctx, &model.AuditLog{
		ID:        uuid.NewString(),
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		ActorID:   actor.ID,
		ActorName: name,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (s *auditService) List(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, int64, error) {
	entries, total, err := s.repo.Audit.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list audit logs", zap.Error(err))
		return nil, 0, err
	}
	return entries, total, nil
}
