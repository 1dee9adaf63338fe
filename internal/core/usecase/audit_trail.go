package usecase

import (
	"context"
	"log"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/ports"
)

// AuditTrail is the append-only sink for outbound call records, plus the
// query surface over them. Log is a fire-and-forget hook usable by any
// integration client: auditing can never be the cause of a business-flow
// failure.
type AuditTrail struct {
	repo ports.AuditRepository
}

func NewAuditTrail(repo ports.AuditRepository) *AuditTrail {
	return &AuditTrail{repo: repo}
}

// Log persists one integration call. Persistence failures are reported
// diagnostically and never reach the caller.
func (t *AuditTrail) Log(ctx context.Context, call domain.IntegrationCall) {
	if err := t.repo.Append(ctx, call); err != nil {
		log.Printf("audit: drop integration call module=%s op=%s endpoint=%s: %v",
			call.Module, call.Operation, call.Endpoint, err)
	}
}

func (t *AuditTrail) List(ctx context.Context, filter domain.AuditFilter) ([]domain.IntegrationCall, error) {
	if err := domain.ValidateKey(filter.TenantID); err != nil {
		return nil, err
	}
	if filter.Module != "" && !filter.Module.Valid() {
		return nil, domain.ErrInvalidModule
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return t.repo.List(ctx, filter)
}
