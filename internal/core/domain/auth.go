package domain

import "time"

// APIKey authenticates an inbound back-office caller and resolves the
// tenant plus the vigilance-entity identity attached to that tenant's
// outbound calls.
type APIKey struct {
	TokenHash            string
	TenantID             string
	Name                 string
	Active               bool
	VigilanceEntityID    string
	VigilanceEntityToken string
	CreatedAt            time.Time
}
