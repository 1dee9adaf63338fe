package domain

import (
	"encoding/json"
	"time"
)

// IntegrationCall is one outbound attempt against the vigilance authority.
// Rows are append-only: this subsystem never mutates or deletes them. The
// in-request auth retry is recorded as a second row whose Operation carries
// the ":retry" suffix.
type IntegrationCall struct {
	ID             int64
	Module         Module
	Operation      string
	Endpoint       string
	RequestPayload json.RawMessage
	ResponseStatus int
	ResponseBody   json.RawMessage
	Success        bool
	DurationMs     int64
	ActorID        string
	TenantID       string
	ErrorMessage   string
	CreatedAt      time.Time
}

// RetryOperationSuffix tags the audited second attempt after a 401/403.
const RetryOperationSuffix = ":retry"

// AuditFilter narrows integration-call listings. Correlation back to domain
// records is intentionally loose: by module, operation and timestamps, not
// by foreign key. Listings run newest-first, so AfterID pages downward:
// "after" the cursor in result order means rows with a smaller id.
type AuditFilter struct {
	TenantID  string
	Module    Module
	Operation string
	Success   *bool
	AfterID   int64
	Limit     int
}
