package audit

import (
	"context"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/repository"
)

type AuditUseCase interface {
	List(ctx context.Context, actor domain.Actor, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error)
}

// Service serves the admin review screens over the audit log.
type Service struct {
	repo repository.AuditLogRepository
}

func NewService(repo repository.AuditLogRepository) *Service {
	return &Service{repo: repo}
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, actor domain.Actor, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminOnly
	}
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	return entries, nil
}

var _ AuditUseCase = (*Service)(nil)
