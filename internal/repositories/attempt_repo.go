package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lil-gargs/backend/internal/models"
)

type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Log appends an audit attempt record. Append-only, never updated.
func (r *AttemptRepo) Log(ctx context.Context, a models.VerificationAttempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_attempts (session_id, result_code, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4)
	`, a.SessionID, a.ResultCode, a.IPHash, a.UserAgent)
	return err
}
