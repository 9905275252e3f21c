package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"task-service/internal/model"
)

type TokenRepository interface {
	Revoke(ctx context.Context, token *model.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type postgresTokenRepository struct {
	db *sqlx.DB
}

func NewPostgresTokenRepository(db *sqlx.DB) TokenRepository {
	return &postgresTokenRepository{db: db}
}

func (r *postgresTokenRepository) Revoke(ctx context.Context, token *model.RevokedToken) error {
	query := `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, token.TokenID, token.UserID, token.ExpiresAt)
	return err
}

func (r *postgresTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`
	err := r.db.GetContext(ctx, &revoked, query, tokenID)
	return revoked, err
}

// PurgeExpired drops revocations whose tokens would fail the expiry check anyway.
func (r *postgresTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
