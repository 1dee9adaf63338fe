package domain

import (
	"encoding/json"
	"testing"
)

func TestRedactMasksSensitiveKeysAnyCase(t *testing.T) {
	payload := map[string]any{
		"usuario":       "integration-svc",
		"PASSWORD":      "hunter2",
		"Contrasena":    "secreta",
		"Authorization": "Bearer abc",
		"token":         "tok-123",
		"BEARER":        "xyz",
		"placa":         "ABC123",
	}

	redacted, ok := Redact(payload).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", Redact(payload))
	}

	for _, key := range []string{"PASSWORD", "Contrasena", "Authorization", "token", "BEARER"} {
		if redacted[key] != RedactedValue {
			t.Errorf("key %s = %v, want %q", key, redacted[key], RedactedValue)
		}
	}
	if redacted["usuario"] != "integration-svc" {
		t.Errorf("usuario = %v, want untouched", redacted["usuario"])
	}
	if redacted["placa"] != "ABC123" {
		t.Errorf("placa = %v, want untouched", redacted["placa"])
	}
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	payload := map[string]any{
		"outer": map[string]any{"password": "original"},
	}

	_ = Redact(payload)

	inner := payload["outer"].(map[string]any)
	if inner["password"] != "original" {
		t.Fatalf("input mutated: %v", inner["password"])
	}
}

func TestRedactWalksNestedStructures(t *testing.T) {
	payload := map[string]any{
		"items": []any{
			map[string]any{"token": "a", "name": "x"},
			map[string]any{"nested": map[string]any{"secret": "b"}},
		},
	}

	redacted := Redact(payload).(map[string]any)
	items := redacted["items"].([]any)

	first := items[0].(map[string]any)
	if first["token"] != RedactedValue || first["name"] != "x" {
		t.Fatalf("unexpected first item: %v", first)
	}
	second := items[1].(map[string]any)["nested"].(map[string]any)
	if second["secret"] != RedactedValue {
		t.Fatalf("nested secret not masked: %v", second)
	}
}

func TestRedactPassesThroughNonContainers(t *testing.T) {
	if got := Redact("plain"); got != "plain" {
		t.Fatalf("string changed: %v", got)
	}
	if got := Redact(42); got != 42 {
		t.Fatalf("int changed: %v", got)
	}
	if got := Redact(nil); got != nil {
		t.Fatalf("nil changed: %v", got)
	}
}

func TestRedactJSON(t *testing.T) {
	raw := json.RawMessage(`{"usuario":"svc","contrasena":"secreta","detalle":{"api_key":"k"}}`)

	redacted := RedactJSON(raw)

	var decoded map[string]any
	if err := json.Unmarshal(redacted, &decoded); err != nil {
		t.Fatalf("decode redacted: %v", err)
	}
	if decoded["contrasena"] != RedactedValue {
		t.Errorf("contrasena = %v", decoded["contrasena"])
	}
	if decoded["detalle"].(map[string]any)["api_key"] != RedactedValue {
		t.Errorf("nested api_key not masked")
	}
	if decoded["usuario"] != "svc" {
		t.Errorf("usuario = %v, want untouched", decoded["usuario"])
	}
}

func TestRedactJSONKeepsNonJSONVerbatim(t *testing.T) {
	raw := json.RawMessage("not json at all")
	if got := RedactJSON(raw); string(got) != "not json at all" {
		t.Fatalf("non-json payload changed: %s", got)
	}
	if got := RedactJSON(nil); got != nil {
		t.Fatalf("empty payload changed: %s", got)
	}
}
