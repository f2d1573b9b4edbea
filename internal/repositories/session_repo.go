package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lil-gargs/backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.VerificationSession) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO verification_sessions (
			token, discord_id, guild_id, wallet_address, status, message, username, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, s.Token, s.DiscordID, s.GuildID, s.WalletAddress, s.Status, s.Message, s.Username, s.ExpiresAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByToken возвращает (nil, nil), если сессии нет — отсутствие не ошибка,
// вызывающие различают "нет такой сессии" и сбой хранилища.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*models.VerificationSession, error) {
	var s models.VerificationSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, token, discord_id, guild_id, wallet_address, status, message,
		       username, expires_at, verified_at, created_at, updated_at
		FROM verification_sessions WHERE token = $1
	`, token).Scan(
		&s.ID, &s.Token, &s.DiscordID, &s.GuildID, &s.WalletAddress, &s.Status, &s.Message,
		&s.Username, &s.ExpiresAt, &s.VerifiedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// BindWallet привязывает адрес ровно один раз: условие wallet_address IS NULL
// делает позднюю привязку неизменяемой после первой записи.
func (r *SessionRepo) BindWallet(ctx context.Context, id uuid.UUID, address string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE verification_sessions
		SET wallet_address = $1, updated_at = now()
		WHERE id = $2 AND wallet_address IS NULL
	`, address, id)
	return err
}

// Transition — условный переход статуса. Возвращает false, если сессия уже не
// в статусе from: при гонке двух verify побеждает ровно один.
func (r *SessionRepo) Transition(ctx context.Context, id uuid.UUID, from, to string, verifiedAt *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE verification_sessions
		SET status = $1,
		    verified_at = COALESCE($2, verified_at),
		    updated_at = COALESCE($2, now())
		WHERE id = $3 AND status = $4
	`, to, verifiedAt, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
