package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/omejiasq/protegemesicov-sub000/internal/adapters/httpapi"
	sqliteadapter "github.com/omejiasq/protegemesicov-sub000/internal/adapters/sqlite"
	"github.com/omejiasq/protegemesicov-sub000/internal/adapters/sqlite/gormsqlite"
	"github.com/omejiasq/protegemesicov-sub000/internal/adapters/vigilance"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/usecase"
	"github.com/omejiasq/protegemesicov-sub000/internal/metrics"
	"github.com/omejiasq/protegemesicov-sub000/migrations"
)

type Config struct {
	Addr   string
	DBPath string

	VigilanceBaseURL     string
	VigilanceAuthURL     string
	VigilanceLoginPath   string
	VigilanceUser        string
	VigilancePassword    string
	VigilanceEntityID    string
	VigilanceEntityToken string
	VigilanceTimeout     time.Duration

	SyncQueueSize int

	BootstrapAPIKey  string
	BootstrapTenant  string
	BootstrapKeyName string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	recordRepo := sqliteadapter.NewRecordRepository(db)
	auditRepo := sqliteadapter.NewAuditRepository(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)

	m := metrics.New()
	auditTrail := usecase.NewAuditTrail(auditRepo)

	loginPath := cfg.VigilanceLoginPath
	if loginPath == "" {
		loginPath = "/api/v1/inicio-sesion"
	}
	session := vigilance.NewSession(
		resty.New().SetBaseURL(cfg.VigilanceAuthURL).SetTimeout(cfg.VigilanceTimeout),
		loginPath,
		vigilance.Credentials{Usuario: cfg.VigilanceUser, Contrasena: cfg.VigilancePassword},
	)
	client := vigilance.NewClient(vigilance.ClientConfig{
		BaseURL:     cfg.VigilanceBaseURL,
		EntityID:    cfg.VigilanceEntityID,
		EntityToken: cfg.VigilanceEntityToken,
		Timeout:     cfg.VigilanceTimeout,
	}, session, auditTrail, m)

	validator, err := usecase.NewPayloadValidator()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load payload schemas: %w", err)
	}

	worker := usecase.NewSyncWorker(cfg.SyncQueueSize)
	worker.Start(context.Background())

	syncService := usecase.NewSyncService(recordRepo, client, validator, worker, m, usecase.DefaultModules()...)
	authService := usecase.NewAuthService(apiKeyRepo)

	if cfg.BootstrapAPIKey != "" {
		tenant := cfg.BootstrapTenant
		if tenant == "" {
			tenant = "default"
		}
		name := cfg.BootstrapKeyName
		if name == "" {
			name = "bootstrap"
		}

		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := apiKeyRepo.Upsert(bootstrapCtx, domain.APIKey{
			TokenHash:            usecase.HashToken(cfg.BootstrapAPIKey),
			TenantID:             tenant,
			Name:                 name,
			Active:               true,
			VigilanceEntityID:    cfg.VigilanceEntityID,
			VigilanceEntityToken: cfg.VigilanceEntityToken,
			CreatedAt:            time.Now().UTC(),
		})
		bootstrapCancel()
		if err != nil {
			_ = worker.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	handler := httpapi.NewHandler(syncService, authService, auditTrail)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{worker, db}}, nil
}
