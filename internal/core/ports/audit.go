package ports

import (
	"context"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

type AuditRepository interface {
	Append(ctx context.Context, call domain.IntegrationCall) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.IntegrationCall, error)
}
