package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lil-gargs/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Upsert — атомарный create-if-absent update по (discord_id, guild_id).
// Возвращает запись после апсерта вместе с id, чтобы к ней можно было
// прицепить снапшот и историю.
func (r *UserRepo) Upsert(ctx context.Context, rec models.UserVerification) (*models.UserVerification, error) {
	var u models.UserVerification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_verifications (discord_id, guild_id, username, wallet_address, is_verified, last_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (discord_id, guild_id) DO UPDATE SET
			username = COALESCE(EXCLUDED.username, user_verifications.username),
			wallet_address = EXCLUDED.wallet_address,
			is_verified = EXCLUDED.is_verified,
			last_verified = EXCLUDED.last_verified,
			updated_at = now()
		RETURNING id, discord_id, guild_id, username, wallet_address, is_verified, last_verified, created_at, updated_at
	`, rec.DiscordID, rec.GuildID, rec.Username, rec.WalletAddress, rec.IsVerified, rec.LastVerified,
	).Scan(
		&u.ID, &u.DiscordID, &u.GuildID, &u.Username, &u.WalletAddress, &u.IsVerified, &u.LastVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ReplaceSnapshot replaces the owned-token snapshot attached to the record.
func (r *UserRepo) ReplaceSnapshot(ctx context.Context, userVerificationID uuid.UUID, nfts []models.OwnedNFT) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_nft_snapshots WHERE user_verification_id = $1`, userVerificationID); err != nil {
		return err
	}
	for _, n := range nfts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_nft_snapshots (user_verification_id, mint, name, image)
			VALUES ($1, $2, $3, $4)
		`, userVerificationID, n.Mint, n.Name, n.Image); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AppendHistory appends a verification history entry. Append-only.
func (r *UserRepo) AppendHistory(ctx context.Context, userVerificationID uuid.UUID, resultCode string, nftCount int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_verification_history (user_verification_id, result_code, nft_count)
		VALUES ($1, $2, $3)
	`, userVerificationID, resultCode, nftCount)
	return err
}

func (r *UserRepo) GetByDiscordAndGuild(ctx context.Context, discordID, guildID string) (*models.UserVerification, error) {
	var u models.UserVerification
	err := r.pool.QueryRow(ctx, `
		SELECT id, discord_id, guild_id, username, wallet_address, is_verified, last_verified, created_at, updated_at
		FROM user_verifications WHERE discord_id = $1 AND guild_id = $2
	`, discordID, guildID).Scan(
		&u.ID, &u.DiscordID, &u.GuildID, &u.Username, &u.WalletAddress, &u.IsVerified, &u.LastVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
