package models

import (
	"time"

	"github.com/google/uuid"
)

// UserVerification — per (discord_id, guild_id) verification record.
type UserVerification struct {
	ID            uuid.UUID  `json:"id"`
	DiscordID     string     `json:"discord_id"`
	GuildID       string     `json:"guild_id"`
	Username      *string    `json:"username,omitempty"`
	WalletAddress *string    `json:"wallet_address,omitempty"`
	IsVerified    bool       `json:"is_verified"`
	LastVerified  *time.Time `json:"last_verified,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OwnedNFT — снапшот токена на момент верификации.
type OwnedNFT struct {
	Mint  string `json:"mint"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type VerificationHistoryEntry struct {
	ID                 uuid.UUID `json:"id"`
	UserVerificationID uuid.UUID `json:"user_verification_id"`
	ResultCode         string    `json:"result_code"`
	NFTCount           int       `json:"nft_count"`
	CreatedAt          time.Time `json:"created_at"`
}
