package vigilance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/ports"
	"github.com/omejiasq/protegemesicov-sub000/internal/metrics"
)

const defaultCallTimeout = 10 * time.Second

// AuditLogger is the fire-and-forget sink for outbound call records.
type AuditLogger interface {
	Log(ctx context.Context, call domain.IntegrationCall)
}

// ClientConfig carries the business API location and the process-level
// vigilance-entity fallback used when the tenant context supplies none.
type ClientConfig struct {
	BaseURL     string
	EntityID    string
	EntityToken string
	Timeout     time.Duration
}

// Client executes audited business calls: obtain or reuse the session
// token, perform the call, audit every attempt with a redacted payload,
// and recover from credential expiry with exactly one re-authentication
// retry. There is no backoff and no further retry policy.
type Client struct {
	http        *resty.Client
	session     ports.TokenSource
	audit       AuditLogger
	metrics     *metrics.Metrics
	entityID    string
	entityToken string
	timeout     time.Duration
}

func NewClient(cfg ClientConfig, session ports.TokenSource, audit AuditLogger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{
		http:        resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(timeout),
		session:     session,
		audit:       audit,
		metrics:     m,
		entityID:    cfg.EntityID,
		entityToken: cfg.EntityToken,
		timeout:     timeout,
	}
}

func (c *Client) Do(ctx context.Context, req domain.OutboundRequest) (domain.OutboundResponse, error) {
	token, err := c.session.Token(ctx)
	if err != nil {
		return domain.OutboundResponse{}, err
	}

	resp, err := c.attempt(ctx, req, token, req.Operation)
	if err != nil {
		return domain.OutboundResponse{}, err
	}
	if resp.Status != http.StatusUnauthorized && resp.Status != http.StatusForbidden {
		return resp, nil
	}

	// the session credential expired under us: discard it, authenticate
	// again, and repeat the call exactly once, surfacing the retry's
	// outcome whatever it is
	c.session.Invalidate()
	if c.metrics != nil {
		c.metrics.VigilanceRetries.Inc()
	}
	token, err = c.session.Token(ctx)
	if err != nil {
		return domain.OutboundResponse{}, err
	}
	resp, err = c.attempt(ctx, req, token, req.Operation+domain.RetryOperationSuffix)
	if err == nil && (resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden) {
		// the re-obtained token failed auth too; drop it so the next
		// caller authenticates instead of replaying a dead credential
		c.session.Invalidate()
	}
	return resp, err
}

func (c *Client) attempt(ctx context.Context, req domain.OutboundRequest, token, operation string) (domain.OutboundResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	r := c.http.R().
		SetContext(callCtx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", "application/json").
		SetHeader("identificacionVigilado", fallback(req.Tenant.VigilanceEntityID, c.entityID)).
		SetHeader("tokenVigilado", fallback(req.Tenant.VigilanceEntityToken, c.entityToken))

	var requestPayload json.RawMessage
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return domain.OutboundResponse{}, fmt.Errorf("marshal request body: %w", err)
		}
		requestPayload = raw
		r.SetBody(raw)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)

	call := domain.IntegrationCall{
		Module:         req.Module,
		Operation:      operation,
		Endpoint:       req.Path,
		RequestPayload: domain.RedactJSON(requestPayload),
		DurationMs:     time.Since(start).Milliseconds(),
		ActorID:        req.Tenant.ActorID,
		TenantID:       req.Tenant.TenantID,
		CreatedAt:      time.Now().UTC(),
	}

	if err != nil {
		call.ErrorMessage = err.Error()
		c.audit.Log(context.WithoutCancel(ctx), call)
		c.countCall(req.Module, false)
		return domain.OutboundResponse{}, fmt.Errorf("vigilance %s %s: %w", req.Method, req.Path, err)
	}

	body := normalizeBody(resp.Body())
	call.ResponseStatus = resp.StatusCode()
	call.ResponseBody = body
	call.Success = resp.IsSuccess()
	c.audit.Log(context.WithoutCancel(ctx), call)
	c.countCall(req.Module, resp.IsSuccess())

	return domain.OutboundResponse{
		Status: resp.StatusCode(),
		OK:     resp.IsSuccess(),
		Body:   body,
	}, nil
}

func (c *Client) countCall(module domain.Module, ok bool) {
	if c.metrics == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	c.metrics.VigilanceCalls.WithLabelValues(string(module), outcome).Inc()
}

// normalizeBody keeps JSON bodies verbatim and wraps anything else as a
// JSON string, so a malformed response never fails the call.
func normalizeBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(append([]byte(nil), body...))
	}
	wrapped, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return wrapped
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
