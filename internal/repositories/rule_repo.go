package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lil-gargs/backend/internal/models"
)

type RuleRepo struct {
	pool *pgxpool.Pool
}

func NewRuleRepo(pool *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{pool: pool}
}

func (r *RuleRepo) ListByGuild(ctx context.Context, guildID string) ([]models.GuildContractRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, guild_id, contract_address, required_nft_count, role_id, role_name, created_at
		FROM guild_contract_rules
		WHERE guild_id = $1
		ORDER BY created_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.GuildContractRule
	for rows.Next() {
		var rule models.GuildContractRule
		if err := rows.Scan(
			&rule.ID, &rule.GuildID, &rule.ContractAddress, &rule.RequiredNFTCount,
			&rule.RoleID, &rule.RoleName, &rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepo) Create(ctx context.Context, rule *models.GuildContractRule) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO guild_contract_rules (guild_id, contract_address, required_nft_count, role_id, role_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, contract_address, role_id) DO UPDATE SET
			required_nft_count = EXCLUDED.required_nft_count,
			role_name = EXCLUDED.role_name
		RETURNING id, created_at
	`, rule.GuildID, rule.ContractAddress, rule.RequiredNFTCount, rule.RoleID, rule.RoleName,
	).Scan(&rule.ID, &rule.CreatedAt)
}

func (r *RuleRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM guild_contract_rules WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
