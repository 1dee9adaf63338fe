package usecase

import (
	"encoding/json"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

// Maintenance type codes of the vigilance authority's base contract.
const (
	maintenanceTypePreventive = 1
	maintenanceTypeCorrective = 2
	maintenanceTypeEnlistment = 3
)

// ModuleDescriptor fixes one module's natural key, remote endpoints,
// payload mapping and sync mode. All remote paths are relative to the
// vigilance API base URL.
type ModuleDescriptor struct {
	Module     domain.Module
	Mode       SyncMode
	BasePath   string
	DetailPath string
	NaturalKey func(input CreateInput) string
	MapBase    func(rec domain.DomainRecord) any
	MapDetail  func(rec domain.DomainRecord, baseID string) any
}

// DefaultModules returns the five compliance modules with their sync
// policies: maintenance-family modules push detached, authorizations and
// vehicles push inline.
func DefaultModules() []ModuleDescriptor {
	return []ModuleDescriptor{
		maintenanceModule(domain.ModulePreventive, "/api/v1/preventivo", maintenanceTypePreventive),
		maintenanceModule(domain.ModuleCorrective, "/api/v1/correctivo", maintenanceTypeCorrective),
		maintenanceModule(domain.ModuleEnlistment, "/api/v1/alistamiento", maintenanceTypeEnlistment),
		{
			Module:     domain.ModuleAuthorization,
			Mode:       SyncInline,
			DetailPath: "/api/v1/autorizacion-viaje",
			NaturalKey: func(input CreateInput) string {
				return input.Plate + ":" + input.DispatchID
			},
			MapDetail: func(rec domain.DomainRecord, _ string) any {
				return detailPayload(rec, "")
			},
		},
		{
			Module:     domain.ModuleVehicle,
			Mode:       SyncInline,
			DetailPath: "/api/v1/vehiculo",
			NaturalKey: func(input CreateInput) string {
				return input.Plate
			},
			MapDetail: func(rec domain.DomainRecord, _ string) any {
				return detailPayload(rec, "")
			},
		},
	}
}

// maintenanceModule builds a descriptor for the two-step base/detail
// contract: a generic maintenance record keyed by type code, then the
// type-specific detail referencing the base's remote id.
func maintenanceModule(m domain.Module, detailPath string, typeCode int) ModuleDescriptor {
	return ModuleDescriptor{
		Module:     m,
		Mode:       SyncDetached,
		BasePath:   "/api/v1/mantenimiento",
		DetailPath: detailPath,
		NaturalKey: func(input CreateInput) string {
			return input.Plate
		},
		MapBase: func(rec domain.DomainRecord) any {
			return map[string]any{
				"tipoMantenimientoId": typeCode,
				"placa":               rec.Plate,
			}
		},
		MapDetail: func(rec domain.DomainRecord, baseID string) any {
			return detailPayload(rec, baseID)
		},
	}
}

// detailPayload maps the local business fields onto the remote detail
// contract: the stored payload, the plate, and (when the base step ran)
// the remote maintenance id.
func detailPayload(rec domain.DomainRecord, baseID string) any {
	fields := map[string]any{}
	if err := json.Unmarshal(rec.Data, &fields); err != nil {
		fields = map[string]any{}
	}
	fields["placa"] = rec.Plate
	if baseID != "" {
		fields["mantenimientoId"] = baseID
	}
	return fields
}
