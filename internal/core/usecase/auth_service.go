package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
	"github.com/omejiasq/protegemesicov-sub000/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

type AuthService struct {
	repo ports.APIKeyRepository
}

func NewAuthService(repo ports.APIKeyRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Authenticate resolves an inbound API key to the tenant context carried by
// every orchestrator call, including the tenant's vigilance-entity identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.TenantContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.TenantContext{}, ErrUnauthorized
	}

	hash := HashToken(token)
	apiKey, err := s.repo.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TenantContext{}, ErrUnauthorized
		}
		return domain.TenantContext{}, err
	}
	if !apiKey.Active {
		return domain.TenantContext{}, ErrUnauthorized
	}

	return domain.TenantContext{
		TenantID:             apiKey.TenantID,
		ActorID:              apiKey.Name,
		VigilanceEntityID:    apiKey.VigilanceEntityID,
		VigilanceEntityToken: apiKey.VigilanceEntityToken,
	}, nil
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
