package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/ports"
	"github.com/omejiasq/protegemesicov-sub000/internal/metrics"
)

// SyncMode decides, once per module, whether the remote push happens before
// the create call returns or on the background worker.
type SyncMode int

const (
	SyncInline SyncMode = iota
	SyncDetached
)

// CreateInput is the module-agnostic shape of a validated create payload.
type CreateInput struct {
	Plate         string
	DispatchID    string
	CorrelationID string
	Data          json.RawMessage
}

// RecordView is a local record optionally enriched by a fresh remote read.
// ExternalData stays absent whenever the remote read fails.
type RecordView struct {
	domain.DomainRecord
	ExternalData json.RawMessage
}

// SyncService owns the local-first, best-effort-remote workflow for every
// compliance module. The local write always happens before the remote
// attempt, and the remote outcome never affects the committed local row.
type SyncService struct {
	records   ports.RecordRepository
	vigilance ports.VigilanceClient
	validator *PayloadValidator
	worker    *SyncWorker
	metrics   *metrics.Metrics
	modules   map[domain.Module]ModuleDescriptor
}

func NewSyncService(
	records ports.RecordRepository,
	vigilance ports.VigilanceClient,
	validator *PayloadValidator,
	worker *SyncWorker,
	m *metrics.Metrics,
	descriptors ...ModuleDescriptor,
) *SyncService {
	modules := make(map[domain.Module]ModuleDescriptor, len(descriptors))
	for _, d := range descriptors {
		modules[d.Module] = d
	}
	return &SyncService{
		records:   records,
		vigilance: vigilance,
		validator: validator,
		worker:    worker,
		metrics:   m,
		modules:   modules,
	}
}

// Create persists the record, then pushes it to the vigilance authority per
// the module's sync mode. The duplicate check runs before any remote
// interaction; remote failures are swallowed here and become visible only
// through SyncStatus and the audit trail.
func (s *SyncService) Create(ctx context.Context, tenant domain.TenantContext, module domain.Module, input CreateInput) (domain.DomainRecord, error) {
	desc, ok := s.modules[module]
	if !ok {
		return domain.DomainRecord{}, domain.ErrInvalidModule
	}
	if err := s.validator.Validate(module, input.Data); err != nil {
		return domain.DomainRecord{}, err
	}

	rec := domain.DomainRecord{
		ID:            uuid.NewString(),
		TenantID:      tenant.TenantID,
		Module:        module,
		NaturalKey:    desc.NaturalKey(input),
		Plate:         input.Plate,
		CorrelationID: input.CorrelationID,
		Data:          input.Data,
		SyncStatus:    domain.SyncPending,
		CreatedBy:     tenant.ActorID,
		Active:        true,
	}
	if err := rec.Validate(); err != nil {
		return domain.DomainRecord{}, err
	}

	_, err := s.records.FindByNaturalKey(ctx, rec.TenantID, module, rec.NaturalKey)
	if err == nil {
		return domain.DomainRecord{}, domain.ErrDuplicateRecord
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.DomainRecord{}, err
	}

	created, err := s.records.Create(ctx, rec)
	if err != nil {
		return domain.DomainRecord{}, err
	}

	switch desc.Mode {
	case SyncInline:
		s.push(ctx, tenant, desc, created)
		if fresh, getErr := s.records.Get(ctx, created.TenantID, module, created.ID); getErr == nil {
			return fresh, nil
		}
		return created, nil
	default:
		s.enqueuePush(tenant, desc, created)
		return created, nil
	}
}

// View returns the local record plus a best-effort remote read.
func (s *SyncService) View(ctx context.Context, tenant domain.TenantContext, module domain.Module, id string) (RecordView, error) {
	desc, ok := s.modules[module]
	if !ok {
		return RecordView{}, domain.ErrInvalidModule
	}

	rec, err := s.records.Get(ctx, tenant.TenantID, module, id)
	if err != nil {
		return RecordView{}, err
	}

	view := RecordView{DomainRecord: rec}
	if desc.DetailPath == "" || rec.ExternalID == "" {
		return view, nil
	}

	resp, err := s.vigilance.Do(ctx, domain.OutboundRequest{
		Module:    module,
		Operation: string(module) + ".view",
		Method:    http.MethodGet,
		Path:      desc.DetailPath + "/" + rec.ExternalID,
		Tenant:    tenant,
	})
	if err != nil || !resp.OK {
		return view, nil
	}
	view.ExternalData = resp.Body
	return view, nil
}

// Update rewrites the record's business fields. Local only: the remote
// entity is not re-pushed on update.
func (s *SyncService) Update(ctx context.Context, tenant domain.TenantContext, module domain.Module, id string, data json.RawMessage) (domain.DomainRecord, error) {
	if _, ok := s.modules[module]; !ok {
		return domain.DomainRecord{}, domain.ErrInvalidModule
	}
	if err := s.validator.Validate(module, data); err != nil {
		return domain.DomainRecord{}, err
	}
	return s.records.UpdateData(ctx, tenant.TenantID, module, id, data)
}

func (s *SyncService) ToggleActive(ctx context.Context, tenant domain.TenantContext, module domain.Module, id string, active bool) (domain.DomainRecord, error) {
	if _, ok := s.modules[module]; !ok {
		return domain.DomainRecord{}, domain.ErrInvalidModule
	}
	return s.records.SetActive(ctx, tenant.TenantID, module, id, active)
}

func (s *SyncService) List(ctx context.Context, filter domain.RecordFilter) ([]domain.DomainRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.records.List(ctx, filter)
}

func (s *SyncService) enqueuePush(tenant domain.TenantContext, desc ModuleDescriptor, rec domain.DomainRecord) {
	queued := s.worker.Enqueue(SyncJob{
		Module:   rec.Module,
		RecordID: rec.ID,
		Run: func(ctx context.Context) {
			s.push(ctx, tenant, desc, rec)
		},
	})
	if !queued {
		log.Printf("sync: queue full, record %s/%s left unsynced", rec.Module, rec.ID)
		s.markFailed(context.Background(), rec)
	}
}

// push performs the defensive two-step remote create: ensure the base
// entity, then push the detail. Every failure path marks the record failed
// and returns; nothing propagates to the caller of Create.
func (s *SyncService) push(ctx context.Context, tenant domain.TenantContext, desc ModuleDescriptor, rec domain.DomainRecord) {
	baseID := ""
	if desc.BasePath != "" {
		resp, err := s.vigilance.Do(ctx, domain.OutboundRequest{
			Module:    rec.Module,
			Operation: string(rec.Module) + ".base-create",
			Method:    http.MethodPost,
			Path:      desc.BasePath,
			Body:      desc.MapBase(rec),
			Tenant:    tenant,
		})
		if err != nil || !resp.OK {
			s.markFailed(ctx, rec)
			return
		}
		baseID = resp.Field("id")
		if baseID == "" {
			s.markFailed(ctx, rec)
			return
		}
	}

	resp, err := s.vigilance.Do(ctx, domain.OutboundRequest{
		Module:    rec.Module,
		Operation: string(rec.Module) + ".create",
		Method:    http.MethodPost,
		Path:      desc.DetailPath,
		Body:      desc.MapDetail(rec, baseID),
		Tenant:    tenant,
	})
	if err != nil || !resp.OK {
		s.markFailed(ctx, rec)
		return
	}

	if externalID := resp.Field("id"); externalID != "" {
		if err := s.records.SetExternalID(ctx, rec.ID, externalID); err != nil {
			log.Printf("sync: backfill external id for %s/%s: %v", rec.Module, rec.ID, err)
		}
	}
	if err := s.records.SetSyncStatus(ctx, rec.ID, domain.SyncSynced); err != nil {
		log.Printf("sync: mark synced %s/%s: %v", rec.Module, rec.ID, err)
	}
	if s.metrics != nil {
		s.metrics.SyncPushes.WithLabelValues(string(rec.Module), string(domain.SyncSynced)).Inc()
	}
}

func (s *SyncService) markFailed(ctx context.Context, rec domain.DomainRecord) {
	if err := s.records.SetSyncStatus(ctx, rec.ID, domain.SyncFailed); err != nil {
		log.Printf("sync: mark failed %s/%s: %v", rec.Module, rec.ID, err)
	}
	if s.metrics != nil {
		s.metrics.SyncPushes.WithLabelValues(string(rec.Module), string(domain.SyncFailed)).Inc()
	}
}
