package models

import (
	"time"

	"github.com/google/uuid"
)

// GuildContractRule maps a token collection + minimum count to a role grant.
// Read-only input to the verification core; mutated only through the admin API.
type GuildContractRule struct {
	ID               uuid.UUID `json:"id"`
	GuildID          string    `json:"guild_id"`
	ContractAddress  string    `json:"contract_address"`
	RequiredNFTCount int       `json:"required_nft_count"`
	RoleID           string    `json:"role_id"`
	RoleName         string    `json:"role_name"`
	CreatedAt        time.Time `json:"created_at"`
}

// RequiredCount применяет дефолт: правило без порога требует хотя бы один токен.
func (r *GuildContractRule) RequiredCount() int {
	if r.RequiredNFTCount <= 0 {
		return 1
	}
	return r.RequiredNFTCount
}
