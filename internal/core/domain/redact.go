package domain

import (
	"encoding/json"
	"strings"
)

// RedactedValue replaces every secret-like field before a payload is
// persisted or logged.
const RedactedValue = "***"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"contrasena":    {},
	"clave":         {},
	"token":         {},
	"access_token":  {},
	"accesstoken":   {},
	"authorization": {},
	"bearer":        {},
	"secret":        {},
	"api_key":       {},
	"apikey":        {},
	"tokenvigilado": {},
}

// Redact returns a deep copy of v with the values of secret-like keys
// (matched case-insensitively) replaced by RedactedValue. Inputs that are
// not maps or slices pass through unchanged.
func Redact(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if _, sensitive := sensitiveKeys[strings.ToLower(k)]; sensitive {
				out[k] = RedactedValue
				continue
			}
			out[k] = Redact(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Redact(item)
		}
		return out
	default:
		return v
	}
}

// RedactJSON redacts a raw JSON document. Payloads that do not decode as
// JSON are returned unchanged rather than failing the caller.
func RedactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	redacted, err := json.Marshal(Redact(v))
	if err != nil {
		return raw
	}
	return redacted
}
