package usecase

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// PayloadValidator checks module create/update payloads against the JSON
// schema embedded for that module. A module without a schema passes.
type PayloadValidator struct {
	schemas map[domain.Module]*santhosh.Schema
}

func NewPayloadValidator() (*PayloadValidator, error) {
	modules := []domain.Module{
		domain.ModulePreventive,
		domain.ModuleCorrective,
		domain.ModuleEnlistment,
		domain.ModuleAuthorization,
		domain.ModuleVehicle,
	}

	v := &PayloadValidator{schemas: make(map[domain.Module]*santhosh.Schema, len(modules))}
	for _, m := range modules {
		raw, err := schemaFS.ReadFile("schemas/" + string(m) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema for %s: %w", m, err)
		}
		compiled, err := compileSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", m, err)
		}
		v.schemas[m] = compiled
	}
	return v, nil
}

// Validate returns *domain.ErrSchemaViolation when data does not conform.
func (v *PayloadValidator) Validate(module domain.Module, data json.RawMessage) error {
	sch, ok := v.schemas[module]
	if !ok {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return &domain.ErrSchemaViolation{Errors: []string{"payload must be valid json"}}
	}
	if err := sch.Validate(decoded); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrSchemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func compileSchema(schemaJSON []byte) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
