package models

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses
const (
	SessionStatusPending   = "pending"
	SessionStatusVerified  = "verified"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
	SessionStatusExpired   = "expired"
)

// Attempt result codes
const (
	AttemptResultVerified         = "verified"
	AttemptResultInvalidSignature = "invalid_signature"
	AttemptResultExpired          = "expired"
	AttemptResultAlreadyCompleted = "already_completed"
)

// Valid state transitions: from -> []to. Всё кроме pending — терминальные статусы.
var ValidSessionTransitions = map[string][]string{
	SessionStatusPending:   {SessionStatusVerified, SessionStatusCompleted, SessionStatusFailed, SessionStatusExpired},
	SessionStatusVerified:  {},
	SessionStatusCompleted: {},
	SessionStatusFailed:    {},
	SessionStatusExpired:   {},
}

func IsValidSessionTransition(from, to string) bool {
	allowed, ok := ValidSessionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further state change is permitted.
func IsTerminalStatus(status string) bool {
	allowed, ok := ValidSessionTransitions[status]
	return ok && len(allowed) == 0
}

type VerificationSession struct {
	ID            uuid.UUID  `json:"id"`
	Token         string     `json:"token"`
	DiscordID     string     `json:"discord_id"`
	GuildID       string     `json:"guild_id"`
	WalletAddress *string    `json:"wallet_address,omitempty"`
	Status        string     `json:"status"`
	Message       string     `json:"-"` // подписываемый payload, наружу только по явному запросу
	Username      *string    `json:"username,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsExpiredAt reports whether the session TTL has elapsed at the given instant.
func (s *VerificationSession) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionView — санитизированное представление сессии для клиентов.
// Message присутствует только если его явно запросили (include message).
type SessionView struct {
	Token         string     `json:"token"`
	DiscordID     string     `json:"discord_id"`
	GuildID       string     `json:"guild_id"`
	WalletAddress *string    `json:"wallet_address,omitempty"`
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	Username      *string    `json:"username,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (s *VerificationSession) View(includeMessage bool) *SessionView {
	v := &SessionView{
		Token:         s.Token,
		DiscordID:     s.DiscordID,
		GuildID:       s.GuildID,
		WalletAddress: s.WalletAddress,
		Status:        s.Status,
		Username:      s.Username,
		ExpiresAt:     s.ExpiresAt,
		VerifiedAt:    s.VerifiedAt,
		CreatedAt:     s.CreatedAt,
	}
	if includeMessage {
		v.Message = s.Message
	}
	return v
}

// VerificationAttempt — append-only audit записи, никогда не мутируются.
type VerificationAttempt struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	ResultCode string    `json:"result_code"`
	IPHash     *string   `json:"-"`
	UserAgent  *string   `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
