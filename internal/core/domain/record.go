package domain

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

// Module identifies one compliance domain reported to the vigilance authority.
type Module string

const (
	ModulePreventive    Module = "preventive"
	ModuleCorrective    Module = "corrective"
	ModuleEnlistment    Module = "enlistment"
	ModuleAuthorization Module = "authorization"
	ModuleVehicle       Module = "vehicle"
)

func (m Module) Valid() bool {
	switch m {
	case ModulePreventive, ModuleCorrective, ModuleEnlistment, ModuleAuthorization, ModuleVehicle:
		return true
	}
	return false
}

// SyncStatus tracks the best-effort remote push for one record. The local
// write is durable regardless of the value here.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// DomainRecord is the tenant-scoped local entry for any compliance module.
// It exists and stays readable whether or not the remote push ever succeeds.
type DomainRecord struct {
	ID            string
	TenantID      string
	Module        Module
	NaturalKey    string
	Plate         string
	CorrelationID string
	ExternalID    string
	Data          json.RawMessage
	SyncStatus    SyncStatus
	CreatedBy     string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)

func ValidateKey(key string) error {
	if key == "" || !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

func (r DomainRecord) Validate() error {
	if err := ValidateKey(r.TenantID); err != nil {
		return ErrMissingTenant
	}
	if !r.Module.Valid() {
		return ErrInvalidModule
	}
	if r.Plate == "" {
		return ErrMissingPlate
	}
	if err := ValidateKey(r.NaturalKey); err != nil {
		return err
	}
	if !json.Valid(r.Data) {
		return errors.New("data must be valid json")
	}
	return nil
}

// RecordFilter narrows tenant-scoped listings.
type RecordFilter struct {
	TenantID    string
	Module      Module
	PlatePrefix string
	Active      *bool
	AfterID     string
	Limit       int
}

func (f RecordFilter) Validate() error {
	if err := ValidateKey(f.TenantID); err != nil {
		return ErrMissingTenant
	}
	if !f.Module.Valid() {
		return ErrInvalidModule
	}
	if f.AfterID != "" {
		if err := ValidateKey(f.AfterID); err != nil {
			return err
		}
	}
	return nil
}
