package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	tenantCtxKey    ctxKey = "tenant_context"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	syncService *usecase.SyncService
	authService *usecase.AuthService
	auditTrail  *usecase.AuditTrail
}

func NewHandler(syncService *usecase.SyncService, authService *usecase.AuthService, auditTrail *usecase.AuditTrail) *Handler {
	return &Handler{syncService: syncService, authService: authService, auditTrail: auditTrail}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Get("/v1/integration-calls", h.listIntegrationCalls)

		pr.Post("/v1/{module}", h.createRecord)
		pr.Get("/v1/{module}", h.listRecords)
		pr.Get("/v1/{module}/{id}", h.viewRecord)
		pr.Put("/v1/{module}/{id}", h.updateRecord)
		pr.Patch("/v1/{module}/{id}/active", h.toggleActive)
	})

	return r
}

type recordResponse struct {
	ID            string          `json:"id"`
	Module        string          `json:"module"`
	Plate         string          `json:"plate"`
	NaturalKey    string          `json:"natural_key"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	ExternalID    string          `json:"external_id,omitempty"`
	Data          json.RawMessage `json:"data"`
	SyncStatus    string          `json:"sync_status"`
	CreatedBy     string          `json:"created_by,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

type recordViewResponse struct {
	recordResponse
	ExternalData json.RawMessage `json:"external_data,omitempty"`
}

type integrationCallResponse struct {
	ID             int64           `json:"id"`
	Module         string          `json:"module"`
	Operation      string          `json:"operation"`
	Endpoint       string          `json:"endpoint"`
	RequestPayload json.RawMessage `json:"request_payload,omitempty"`
	ResponseStatus int             `json:"response_status"`
	ResponseBody   json.RawMessage `json:"response_body,omitempty"`
	Success        bool            `json:"success"`
	DurationMs     int64           `json:"duration_ms"`
	ActorID        string          `json:"actor_id,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type toggleActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	module, ok := parseModule(w, r)
	if !ok {
		return
	}
	tenant := tenantFromContext(r.Context())

	data, ok := readJSONBody(w, r)
	if !ok {
		return
	}

	rec, err := h.syncService.Create(r.Context(), tenant, module, parseCreateInput(data))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) viewRecord(w http.ResponseWriter, r *http.Request) {
	module, ok := parseModule(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	tenant := tenantFromContext(r.Context())

	view, err := h.syncService.View(r.Context(), tenant, module, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordViewResponse{
		recordResponse: toRecordResponse(view.DomainRecord),
		ExternalData:   view.ExternalData,
	})
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	module, ok := parseModule(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	tenant := tenantFromContext(r.Context())

	data, ok := readJSONBody(w, r)
	if !ok {
		return
	}

	rec, err := h.syncService.Update(r.Context(), tenant, module, id, data)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) toggleActive(w http.ResponseWriter, r *http.Request) {
	module, ok := parseModule(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	tenant := tenantFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var req toggleActiveRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	rec, err := h.syncService.ToggleActive(r.Context(), tenant, module, id, req.Active)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	module, ok := parseModule(w, r)
	if !ok {
		return
	}
	tenant := tenantFromContext(r.Context())

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	filter := domain.RecordFilter{
		TenantID:    tenant.TenantID,
		Module:      module,
		PlatePrefix: r.URL.Query().Get("plate"),
		AfterID:     r.URL.Query().Get("after"),
		Limit:       limit,
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be boolean")
			return
		}
		filter.Active = &active
	}

	records, err := h.syncService.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		result = append(result, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) listIntegrationCalls(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	filter := domain.AuditFilter{
		TenantID:  tenant.TenantID,
		Module:    domain.Module(r.URL.Query().Get("module")),
		Operation: r.URL.Query().Get("operation"),
		Limit:     limit,
	}
	if raw := r.URL.Query().Get("success"); raw != "" {
		success, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "success must be boolean")
			return
		}
		filter.Success = &success
	}
	if raw := r.URL.Query().Get("after"); raw != "" {
		after, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be integer")
			return
		}
		filter.AfterID = after
	}

	calls, err := h.auditTrail.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]integrationCallResponse, 0, len(calls))
	for _, call := range calls {
		result = append(result, integrationCallResponse{
			ID:             call.ID,
			Module:         string(call.Module),
			Operation:      call.Operation,
			Endpoint:       call.Endpoint,
			RequestPayload: call.RequestPayload,
			ResponseStatus: call.ResponseStatus,
			ResponseBody:   call.ResponseBody,
			Success:        call.Success,
			DurationMs:     call.DurationMs,
			ActorID:        call.ActorID,
			ErrorMessage:   call.ErrorMessage,
			CreatedAt:      call.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		tenant, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), tenantCtxKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseCreateInput lifts the module-agnostic fields out of the payload.
// Plate, dispatch and maintenance identifiers arrive as strings or numbers
// depending on the producer.
func parseCreateInput(data json.RawMessage) usecase.CreateInput {
	var envelope struct {
		Placa           string          `json:"placa"`
		NumeroDespacho  json.RawMessage `json:"numeroDespacho"`
		MantenimientoID json.RawMessage `json:"mantenimientoId"`
	}
	_ = json.Unmarshal(data, &envelope)

	return usecase.CreateInput{
		Plate:         envelope.Placa,
		DispatchID:    rawToString(envelope.NumeroDespacho),
		CorrelationID: rawToString(envelope.MantenimientoID),
		Data:          data,
	}
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func parseModule(w http.ResponseWriter, r *http.Request) (domain.Module, bool) {
	module := domain.Module(chi.URLParam(r, "module"))
	if !module.Valid() {
		writeError(w, http.StatusNotFound, "unknown module")
		return "", false
	}
	return module, true
}

func readJSONBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	var data json.RawMessage
	if err := decoder.Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return data, true
}

func toRecordResponse(rec domain.DomainRecord) recordResponse {
	return recordResponse{
		ID:            rec.ID,
		Module:        string(rec.Module),
		Plate:         rec.Plate,
		NaturalKey:    rec.NaturalKey,
		CorrelationID: rec.CorrelationID,
		ExternalID:    rec.ExternalID,
		Data:          rec.Data,
		SyncStatus:    string(rec.SyncStatus),
		CreatedBy:     rec.CreatedBy,
		Active:        rec.Active,
		CreatedAt:     rec.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     rec.UpdatedAt.UTC().Format(timeFormat),
	}
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var violation *domain.ErrSchemaViolation
	switch {
	case errors.Is(err, domain.ErrDuplicateRecord):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &violation):
		writeError(w, http.StatusUnprocessableEntity, violation.Error())
	case errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidModule),
		errors.Is(err, domain.ErrMissingPlate),
		errors.Is(err, domain.ErrMissingTenant):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func tenantFromContext(ctx context.Context) domain.TenantContext {
	tenant, _ := ctx.Value(tenantCtxKey).(domain.TenantContext)
	return tenant
}
