package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omejiasq/protegemesicov-sub000/internal/adapters/sqlite/gormsqlite"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

type integrationCallModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Module         string    `gorm:"column:module;not null"`
	Operation      string    `gorm:"column:operation;not null"`
	Endpoint       string    `gorm:"column:endpoint;not null"`
	RequestPayload string    `gorm:"column:request_payload"`
	ResponseStatus int       `gorm:"column:response_status"`
	ResponseBody   string    `gorm:"column:response_body"`
	Success        bool      `gorm:"column:success;not null"`
	DurationMs     int64     `gorm:"column:duration_ms"`
	ActorID        string    `gorm:"column:actor_id"`
	TenantID       string    `gorm:"column:tenant_id"`
	ErrorMessage   string    `gorm:"column:error_message"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (integrationCallModel) TableName() string {
	return "integration_calls"
}

// AuditRepository is append-only: rows are inserted once and never updated
// or deleted by this subsystem.
type AuditRepository struct {
	db *gormsqlite.DB
}

func NewAuditRepository(db *gormsqlite.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, call domain.IntegrationCall) error {
	model := integrationCallModel{
		Module:         string(call.Module),
		Operation:      call.Operation,
		Endpoint:       call.Endpoint,
		RequestPayload: string(call.RequestPayload),
		ResponseStatus: call.ResponseStatus,
		ResponseBody:   string(call.ResponseBody),
		Success:        call.Success,
		DurationMs:     call.DurationMs,
		ActorID:        call.ActorID,
		TenantID:       call.TenantID,
		ErrorMessage:   call.ErrorMessage,
		CreatedAt:      call.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert integration call: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.IntegrationCall, error) {
	var rows []integrationCallModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&integrationCallModel{}).Where("tenant_id = ?", filter.TenantID)
		if filter.Module != "" {
			query = query.Where("module = ?", string(filter.Module))
		}
		if filter.Operation != "" {
			query = query.Where("operation = ?", filter.Operation)
		}
		if filter.Success != nil {
			query = query.Where("success = ?", *filter.Success)
		}
		if filter.AfterID > 0 {
			// newest-first pagination: the page after the cursor holds
			// the older rows
			query = query.Where("id < ?", filter.AfterID)
		}
		return query.Order("id DESC").Limit(filter.Limit).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list integration calls: %w", err)
	}

	result := make([]domain.IntegrationCall, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.IntegrationCall{
			ID:             row.ID,
			Module:         domain.Module(row.Module),
			Operation:      row.Operation,
			Endpoint:       row.Endpoint,
			RequestPayload: json.RawMessage(row.RequestPayload),
			ResponseStatus: row.ResponseStatus,
			ResponseBody:   json.RawMessage(row.ResponseBody),
			Success:        row.Success,
			DurationMs:     row.DurationMs,
			ActorID:        row.ActorID,
			TenantID:       row.TenantID,
			ErrorMessage:   row.ErrorMessage,
			CreatedAt:      row.CreatedAt,
		})
	}
	return result, nil
}

// Count supports tests and reconciliation tooling; the audit trail has no
// other aggregate surface.
func (r *AuditRepository) Count(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&integrationCallModel{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	})
	if err != nil {
		return 0, fmt.Errorf("count integration calls: %w", err)
	}
	return n, nil
}
