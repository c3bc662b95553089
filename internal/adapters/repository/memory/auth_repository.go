package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

type AuthRepository struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]domain.RefreshToken
}

func NewAuthRepository() *AuthRepository {
	return &AuthRepository{tokens: make(map[uuid.UUID]domain.RefreshToken)}
}

func (r *AuthRepository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.tokens[token.ID] = *token
	return nil
}

func (r *AuthRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tokens[id]; ok {
		t.Revoked = true
		r.tokens[id] = t
	}
	return nil
}
