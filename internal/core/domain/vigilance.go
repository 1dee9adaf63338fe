package domain

import "encoding/json"

// OutboundRequest describes one business call against the vigilance
// authority. The Operation string names the audited action; Module scopes
// it to a compliance domain.
type OutboundRequest struct {
	Module    Module
	Operation string
	Method    string
	Path      string
	Body      any
	Tenant    TenantContext
}

// OutboundResponse is the permissively-decoded outcome of an outbound call.
// Body holds the raw response bytes; non-JSON bodies are kept verbatim.
type OutboundResponse struct {
	Status int
	OK     bool
	Body   json.RawMessage
}

// Field probes the response body for a top-level key, decoding numbers and
// strings alike to a string. Empty when the body is not a JSON object or
// the key is absent.
func (r OutboundResponse) Field(key string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return ""
	}
	raw, ok := m[key]
	if !ok {
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
