package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omejiasq/protegemesicov-sub000/internal/adapters/sqlite/gormsqlite"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"gorm.io/gorm"
)

type recordModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	TenantID      string    `gorm:"column:tenant_id;not null"`
	Module        string    `gorm:"column:module;not null"`
	NaturalKey    string    `gorm:"column:natural_key;not null"`
	Plate         string    `gorm:"column:plate;not null"`
	CorrelationID string    `gorm:"column:correlation_id"`
	ExternalID    string    `gorm:"column:external_id"`
	Data          string    `gorm:"column:data;not null"`
	SyncStatus    string    `gorm:"column:sync_status;not null"`
	CreatedBy     string    `gorm:"column:created_by"`
	Active        bool      `gorm:"column:active;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (recordModel) TableName() string {
	return "domain_records"
}

type RecordRepository struct {
	db *gormsqlite.DB
}

func NewRecordRepository(db *gormsqlite.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, rec domain.DomainRecord) (domain.DomainRecord, error) {
	now := time.Now().UTC()
	model := recordModel{
		ID:            rec.ID,
		TenantID:      rec.TenantID,
		Module:        string(rec.Module),
		NaturalKey:    rec.NaturalKey,
		Plate:         rec.Plate,
		CorrelationID: rec.CorrelationID,
		ExternalID:    rec.ExternalID,
		Data:          string(rec.Data),
		SyncStatus:    string(rec.SyncStatus),
		CreatedBy:     rec.CreatedBy,
		Active:        rec.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		// the unique (tenant_id, module, natural_key) index is the last
		// line of defense when two creates race past the pre-check
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.DomainRecord{}, domain.ErrDuplicateRecord
		}
		return domain.DomainRecord{}, fmt.Errorf("insert record: %w", err)
	}

	return toDomainRecord(model), nil
}

func (r *RecordRepository) Get(ctx context.Context, tenantID string, module domain.Module, id string) (domain.DomainRecord, error) {
	var model recordModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("tenant_id = ? AND module = ? AND id = ?", tenantID, string(module), id).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DomainRecord{}, domain.ErrNotFound
		}
		return domain.DomainRecord{}, fmt.Errorf("get record: %w", err)
	}
	return toDomainRecord(model), nil
}

func (r *RecordRepository) FindByNaturalKey(ctx context.Context, tenantID string, module domain.Module, naturalKey string) (domain.DomainRecord, error) {
	var model recordModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("tenant_id = ? AND module = ? AND natural_key = ?", tenantID, string(module), naturalKey).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DomainRecord{}, domain.ErrNotFound
		}
		return domain.DomainRecord{}, fmt.Errorf("find record by natural key: %w", err)
	}
	return toDomainRecord(model), nil
}

func (r *RecordRepository) List(ctx context.Context, filter domain.RecordFilter) ([]domain.DomainRecord, error) {
	var models []recordModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&recordModel{}).
			Where("tenant_id = ? AND module = ?", filter.TenantID, string(filter.Module))
		if filter.PlatePrefix != "" {
			prefixUpper := filter.PlatePrefix + "￿"
			query = query.Where("plate >= ? AND plate < ?", filter.PlatePrefix, prefixUpper)
		}
		if filter.Active != nil {
			query = query.Where("active = ?", *filter.Active)
		}
		if filter.AfterID != "" {
			query = query.Where("id > ?", filter.AfterID)
		}
		return query.Order("id ASC").Limit(filter.Limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]domain.DomainRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toDomainRecord(model))
	}
	return records, nil
}

func (r *RecordRepository) UpdateData(ctx context.Context, tenantID string, module domain.Module, id string, data []byte) (domain.DomainRecord, error) {
	err := r.updateScoped(ctx, tenantID, module, id, map[string]any{
		"data":       string(data),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return domain.DomainRecord{}, err
	}
	return r.Get(ctx, tenantID, module, id)
}

func (r *RecordRepository) SetExternalID(ctx context.Context, id, externalID string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&recordModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"external_id": externalID, "updated_at": time.Now().UTC()}).Error
	})
	if err != nil {
		return fmt.Errorf("set external id: %w", err)
	}
	return nil
}

func (r *RecordRepository) SetSyncStatus(ctx context.Context, id string, status domain.SyncStatus) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&recordModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"sync_status": string(status), "updated_at": time.Now().UTC()}).Error
	})
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return nil
}

func (r *RecordRepository) SetActive(ctx context.Context, tenantID string, module domain.Module, id string, active bool) (domain.DomainRecord, error) {
	err := r.updateScoped(ctx, tenantID, module, id, map[string]any{
		"active":     active,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return domain.DomainRecord{}, err
	}
	return r.Get(ctx, tenantID, module, id)
}

func (r *RecordRepository) updateScoped(ctx context.Context, tenantID string, module domain.Module, id string, updates map[string]any) error {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&recordModel{}).
			Where("tenant_id = ? AND module = ? AND id = ?", tenantID, string(module), id).
			Updates(updates)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDomainRecord(model recordModel) domain.DomainRecord {
	return domain.DomainRecord{
		ID:            model.ID,
		TenantID:      model.TenantID,
		Module:        domain.Module(model.Module),
		NaturalKey:    model.NaturalKey,
		Plate:         model.Plate,
		CorrelationID: model.CorrelationID,
		ExternalID:    model.ExternalID,
		Data:          json.RawMessage(model.Data),
		SyncStatus:    domain.SyncStatus(model.SyncStatus),
		CreatedBy:     model.CreatedBy,
		Active:        model.Active,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
