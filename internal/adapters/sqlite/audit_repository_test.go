package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

func appendCall(t *testing.T, repo *AuditRepository, call domain.IntegrationCall) {
	t.Helper()
	if err := repo.Append(context.Background(), call); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestAuditRepositoryAppendList(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()

	appendCall(t, repo, domain.IntegrationCall{
		Module:         domain.ModulePreventive,
		Operation:      "preventive.create",
		Endpoint:       "/api/v1/preventivo",
		RequestPayload: []byte(`{"placa":"ABC123","contrasena":"***"}`),
		ResponseStatus: 401,
		Success:        false,
		TenantID:       "T1",
		ActorID:        "ops-key",
	})
	appendCall(t, repo, domain.IntegrationCall{
		Module:         domain.ModulePreventive,
		Operation:      "preventive.create" + domain.RetryOperationSuffix,
		Endpoint:       "/api/v1/preventivo",
		ResponseStatus: 200,
		Success:        true,
		TenantID:       "T1",
		ActorID:        "ops-key",
	})
	appendCall(t, repo, domain.IntegrationCall{
		Module:    domain.ModuleVehicle,
		Operation: "vehicle.create",
		Endpoint:  "/api/v1/vehiculo",
		Success:   true,
		TenantID:  "T2",
	})

	calls, err := repo.List(ctx, domain.AuditFilter{TenantID: "T1", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("tenant list = %d calls, want 2", len(calls))
	}
	// newest first
	if calls[0].Operation != "preventive.create"+domain.RetryOperationSuffix {
		t.Fatalf("first call = %q, want the retry row", calls[0].Operation)
	}
	if calls[0].ID <= calls[1].ID {
		t.Fatalf("ordering: ids %d, %d", calls[0].ID, calls[1].ID)
	}

	failed := false
	onlyFailed, err := repo.List(ctx, domain.AuditFilter{TenantID: "T1", Success: &failed, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(onlyFailed) != 1 || onlyFailed[0].ResponseStatus != 401 {
		t.Fatalf("failed list = %+v", onlyFailed)
	}

	byOp, err := repo.List(ctx, domain.AuditFilter{TenantID: "T1", Operation: "preventive.create", Limit: 10})
	if err != nil {
		t.Fatalf("list by operation: %v", err)
	}
	if len(byOp) != 1 {
		t.Fatalf("operation list = %d calls, want 1", len(byOp))
	}

	older, err := repo.List(ctx, domain.AuditFilter{TenantID: "T1", AfterID: calls[0].ID, Limit: 10})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(older) != 1 || older[0].ID != calls[1].ID {
		t.Fatalf("page = %+v", older)
	}

	n, err := repo.Count(ctx, "T1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestAPIKeyRepositoryFindUpsert(t *testing.T) {
	repo := NewAPIKeyRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByTokenHash(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing key: err = %v, want ErrNotFound", err)
	}

	key := domain.APIKey{
		TokenHash:            "hash-1",
		TenantID:             "T1",
		Name:                 "ops-key",
		Active:               true,
		VigilanceEntityID:    "NIT-900123",
		VigilanceEntityToken: "entity-tok",
	}
	if err := repo.Upsert(ctx, key); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.TenantID != "T1" || got.VigilanceEntityID != "NIT-900123" {
		t.Fatalf("key roundtrip: %+v", got)
	}

	key.Active = false
	key.Name = "ops-key-rotated"
	if err := repo.Upsert(ctx, key); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = repo.FindByTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("find after upsert: %v", err)
	}
	if got.Active || got.Name != "ops-key-rotated" {
		t.Fatalf("key after upsert: %+v", got)
	}
}
