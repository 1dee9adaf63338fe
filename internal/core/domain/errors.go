package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidModule      = errors.New("invalid module")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateRecord    = errors.New("duplicate record")
	ErrMissingPlate       = errors.New("plate is required")
	ErrMissingTenant      = errors.New("tenant id is required")
	ErrMissingCredentials = errors.New("vigilance credentials are not configured")
)

// AuthError reports a failed login exchange against the vigilance authority:
// either a non-2xx status, or a 2xx response with no extractable token.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vigilance authentication failed (status %d)", e.Status)
}

// ErrSchemaViolation is returned when a create payload does not conform to
// the module's JSON schema. The Errors field contains machine-readable details.
type ErrSchemaViolation struct {
	Errors []string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Errors, "; "))
}
