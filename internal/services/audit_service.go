package services

import (
	"context"

	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/repositories"
)

// AuditService is the read side of the audit log.
type AuditService struct {
	auditRepo *repositories.AuditRepo
}

func NewAuditService(auditRepo *repositories.AuditRepo) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

func (s *AuditService) History(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, entityType, entityID, limit, offset)
}

func (s *AuditService) List(ctx context.Context, f repositories.AuditFilter) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, f)
}
