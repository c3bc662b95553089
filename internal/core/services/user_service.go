package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/logger"
	"github.com/vncsmyrnk/pollsite/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo       ports.UserRepository
	bcryptCost int
}

// NewUserService returns the account service. A zero bcryptCost uses
// bcrypt.DefaultCost.
func NewUserService(repo ports.UserRepository, bcryptCost int) ports.UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

func (s *UserService) Register(ctx context.Context, input ports.SignupInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)

	verr := &domain.ValidationError{}
	if err := validation.Struct(input); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	if input.Password1 != "" && input.Password2 != "" && input.Password1 != input.Password2 {
		verr.Add("password2", "The two password fields didn't match.")
	}
	if input.Username != "" && strings.EqualFold(input.Password1, input.Username) {
		verr.Add("password1", "The password is too similar to the username.")
	}
	if !verr.Empty() {
		return nil, verr
	}

	existing, err := s.repo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("username", domain.ErrUsernameTaken.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password1), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, domain.NewValidationError("username", domain.ErrUsernameTaken.Error())
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.C(ctx).Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
