package ports

import (
	"context"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

// VigilanceClient performs audited outbound calls against the vigilance
// authority. Implementations own the session credential and the
// single-retry-on-auth-failure policy.
type VigilanceClient interface {
	Do(ctx context.Context, req domain.OutboundRequest) (domain.OutboundResponse, error)
}

// TokenSource is the session credential cache behind VigilanceClient.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}
