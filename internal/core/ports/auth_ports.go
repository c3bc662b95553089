package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) error
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type AuthService interface {
	// Login returns access_token, refresh_token, error
	Login(ctx context.Context, username, password string) (string, string, error)
	LoginWithGoogle(ctx context.Context, googleToken string) (string, string, error)
	// RefreshAccessToken returns new access_token, refresh_token (unchanged unless rotated)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseAccessToken(token string) (uuid.UUID, error)
}
