package domain

// TenantContext travels with every orchestrator call. The vigilance-entity
// fields may be empty; process configuration then supplies the fallback.
type TenantContext struct {
	TenantID             string
	ActorID              string
	VigilanceEntityID    string
	VigilanceEntityToken string
}
