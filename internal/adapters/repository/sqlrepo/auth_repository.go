package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type AuthRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewAuthRepository(db *sql.DB, dialect Dialect) ports.AuthRepository {
	return &AuthRepository{db: db, dialect: dialect}
}

func (r *AuthRepository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	query := r.dialect.Rebind(`
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.TokenHash,
		r.dialect.TimeArg(token.ExpiresAt), token.Revoked, r.dialect.TimeArg(token.CreatedAt),
	)
	return err
}

func (r *AuthRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := r.dialect.Rebind(`
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = ?
	`)
	token := &domain.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		timeColumn{&token.ExpiresAt},
		&token.Revoked,
		timeColumn{&token.CreatedAt},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	query := r.dialect.Rebind(`UPDATE refresh_tokens SET revoked = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, true, id)
	return err
}
