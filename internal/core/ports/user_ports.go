package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type SignupInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Password1 string `json:"password1" validate:"required,min=8,notnumeric"`
	Password2 string `json:"password2" validate:"required"`
}

type UserService interface {
	Register(ctx context.Context, input SignupInput) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
