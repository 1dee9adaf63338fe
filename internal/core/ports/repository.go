package ports

import (
	"context"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

type RecordRepository interface {
	Create(ctx context.Context, rec domain.DomainRecord) (domain.DomainRecord, error)
	Get(ctx context.Context, tenantID string, module domain.Module, id string) (domain.DomainRecord, error)
	FindByNaturalKey(ctx context.Context, tenantID string, module domain.Module, naturalKey string) (domain.DomainRecord, error)
	List(ctx context.Context, filter domain.RecordFilter) ([]domain.DomainRecord, error)
	UpdateData(ctx context.Context, tenantID string, module domain.Module, id string, data []byte) (domain.DomainRecord, error)
	SetExternalID(ctx context.Context, id, externalID string) error
	SetSyncStatus(ctx context.Context, id string, status domain.SyncStatus) error
	SetActive(ctx context.Context, tenantID string, module domain.Module, id string, active bool) (domain.DomainRecord, error)
}
