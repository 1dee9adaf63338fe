package usecase

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

func TestPayloadValidatorAcceptsConformingPayloads(t *testing.T) {
	v, err := NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	cases := []struct {
		module domain.Module
		data   string
	}{
		{domain.ModulePreventive, `{"placa":"ABC123","mantenimientoId":"M1","kilometraje":120000}`},
		{domain.ModuleCorrective, `{"placa":"ABC123","mantenimientoId":5,"descripcion":"cambio de frenos"}`},
		{domain.ModuleEnlistment, `{"placa":"ABC123","mantenimientoId":"M3","respuestas":[]}`},
		{domain.ModuleAuthorization, `{"placa":"ABC123","numeroDespacho":42,"origen":"Bogota","destino":"Cali"}`},
		{domain.ModuleVehicle, `{"placa":"ABC123","clase":"bus","modelo":2020}`},
	}
	for _, tc := range cases {
		if err := v.Validate(tc.module, json.RawMessage(tc.data)); err != nil {
			t.Errorf("%s: unexpected violation: %v", tc.module, err)
		}
	}
}

func TestPayloadValidatorRejectsMissingRequiredFields(t *testing.T) {
	v, err := NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	cases := []struct {
		name   string
		module domain.Module
		data   string
	}{
		{"preventive without maintenance id", domain.ModulePreventive, `{"placa":"ABC123"}`},
		{"authorization without dispatch", domain.ModuleAuthorization, `{"placa":"ABC123"}`},
		{"vehicle without plate", domain.ModuleVehicle, `{"clase":"bus"}`},
		{"empty plate", domain.ModuleVehicle, `{"placa":""}`},
		{"not an object", domain.ModuleVehicle, `"ABC123"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.module, json.RawMessage(tc.data))
			var violation *domain.ErrSchemaViolation
			if !errors.As(err, &violation) {
				t.Fatalf("err = %v, want schema violation", err)
			}
			if len(violation.Errors) == 0 {
				t.Fatal("violation carries no messages")
			}
		})
	}
}

func TestPayloadValidatorRejectsMalformedJSON(t *testing.T) {
	v, err := NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	var violation *domain.ErrSchemaViolation
	if err := v.Validate(domain.ModuleVehicle, json.RawMessage(`{"placa":`)); !errors.As(err, &violation) {
		t.Fatalf("err = %v, want schema violation", err)
	}
}
