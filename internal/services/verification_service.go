package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/events"
	"github.com/lil-gargs/backend/internal/models"
	"github.com/lil-gargs/backend/internal/nft"
	"github.com/lil-gargs/backend/internal/solana"
	"go.uber.org/zap"
)

// Store contracts the service depends on. Implementations live in
// internal/repositories; tests substitute in-memory fakes.

type SessionStore interface {
	Create(ctx context.Context, s *models.VerificationSession) error
	// GetByToken returns (nil, nil) when no session matches the token.
	GetByToken(ctx context.Context, token string) (*models.VerificationSession, error)
	// BindWallet sets the wallet address only if none is stored yet.
	BindWallet(ctx context.Context, id uuid.UUID, address string) error
	// Transition moves status from->to conditionally; false means the session
	// already left the from status.
	Transition(ctx context.Context, id uuid.UUID, from, to string, verifiedAt *time.Time) (bool, error)
}

type AttemptStore interface {
	Log(ctx context.Context, a models.VerificationAttempt) error
}

type UserStore interface {
	// Upsert atomically creates or updates the per (discord, guild) record and
	// returns it with its id so snapshot/history rows can be attached.
	Upsert(ctx context.Context, rec models.UserVerification) (*models.UserVerification, error)
	ReplaceSnapshot(ctx context.Context, userVerificationID uuid.UUID, nfts []models.OwnedNFT) error
	AppendHistory(ctx context.Context, userVerificationID uuid.UUID, resultCode string, nftCount int) error
}

type RuleStore interface {
	ListByGuild(ctx context.Context, guildID string) ([]models.GuildContractRule, error)
}

type OwnershipOracle interface {
	CheckOwnership(ctx context.Context, address string, contracts []string) (*nft.OwnershipResult, error)
}

type VerificationService struct {
	sessions  SessionStore
	attempts  AttemptStore
	users     UserStore
	rules     RuleStore
	oracle    OwnershipOracle
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewVerificationService(
	sessions SessionStore,
	attempts AttemptStore,
	users UserStore,
	rules RuleStore,
	oracle OwnershipOracle,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *VerificationService {
	return &VerificationService{
		sessions:  sessions,
		attempts:  attempts,
		users:     users,
		rules:     rules,
		oracle:    oracle,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type CreateSessionInput struct {
	DiscordID     string
	GuildID       string
	WalletAddress string
	Username      string
}

type CreateSessionResult struct {
	Token     string    `json:"token"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// CreateSession создаёт pending-сессию с уникальным токеном и одноразовым
// подписываемым сообщением. Сырой токен и message возвращаются только здесь
// (или по явному include message) — в обычных ответах challenge не светится.
func (s *VerificationService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionResult, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if in.DiscordID == "" || in.GuildID == "" {
		return nil, NewValidationError("discordId and guildId are required")
	}
	if in.WalletAddress != "" && !solana.IsValidAddress(in.WalletAddress) {
		return nil, NewValidationError("invalid wallet address format")
	}

	now := s.now()
	session := &models.VerificationSession{
		Token:     generateToken(),
		DiscordID: in.DiscordID,
		GuildID:   in.GuildID,
		Status:    models.SessionStatusPending,
		Message:   s.buildSignatureMessage(in.DiscordID, in.WalletAddress, now),
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if in.WalletAddress != "" {
		session.WalletAddress = &in.WalletAddress
	}
	if in.Username != "" {
		session.Username = &in.Username
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, NewDependencyError("failed to create verification session", err)
	}

	s.log.Info("verification session created",
		zap.String("discord_id", in.DiscordID),
		zap.String("guild_id", in.GuildID),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return &CreateSessionResult{
		Token:     session.Token,
		Status:    session.Status,
		ExpiresAt: session.ExpiresAt,
		Message:   session.Message,
	}, nil
}

// FindSessionByToken возвращает (nil, nil), если токен неизвестен. Протухшая
// pending-сессия переводится в expired прямо на чтении, и этот переход
// персистится (auto-expire-on-read).
func (s *VerificationService) FindSessionByToken(ctx context.Context, token string, includeMessage bool) (*models.SessionView, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, NewValidationError("token is required")
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, NewDependencyError("failed to load verification session", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.Status == models.SessionStatusPending && session.IsExpiredAt(s.now()) {
		if _, err := s.sessions.Transition(ctx, session.ID, models.SessionStatusPending, models.SessionStatusExpired, nil); err != nil {
			return nil, NewDependencyError("failed to expire verification session", err)
		}
		session.Status = models.SessionStatusExpired
	}

	return session.View(includeMessage), nil
}

type VerifyInput struct {
	Token         string
	Signature     string
	Username      string
	WalletAddress string
	RequesterIP   string
	UserAgent     string
}

type ContractEvaluation struct {
	ContractAddress  string `json:"contract_address"`
	RoleID           string `json:"role_id"`
	RoleName         string `json:"role_name"`
	RequiredNFTCount int    `json:"required_nft_count"`
	OwnedCount       int    `json:"owned_count"`
	MeetsRequirement bool   `json:"meets_requirement"`
}

type VerificationOutcome struct {
	WalletAddress string               `json:"wallet_address"`
	NFTCount      int                  `json:"nft_count"`
	IsVerified    bool                 `json:"is_verified"`
	NFTs          []models.OwnedNFT    `json:"nfts"`
	Contracts     []ContractEvaluation `json:"contracts"`
	ByContract    map[string]int       `json:"by_contract,omitempty"`
	VerifiedAt    time.Time            `json:"verified_at"`
}

type VerifyResult struct {
	Session      *models.SessionView `json:"session"`
	Verification VerificationOutcome `json:"verification"`
}

// VerifySession — единственный путь из pending в терминальный статус.
//
// Порядок проверок фиксирован, каждая отсекает со своей ошибкой:
// валидация -> существование -> TTL -> терминальность -> адрес -> подпись ->
// правила -> oracle -> upsert -> переход. Сбой oracle/хранилища после подписи
// оставляет сессию pending — пользователь может повторить verify в рамках TTL.
func (s *VerificationService) VerifySession(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	// 1. Входные данные
	if in.Token == "" || in.Signature == "" {
		return nil, NewValidationError("token and signature are required")
	}

	// 2. Сессия должна существовать
	session, err := s.sessions.GetByToken(ctx, in.Token)
	if err != nil {
		return nil, NewDependencyError("failed to load verification session", err)
	}
	if session == nil {
		return nil, NewNotFoundError("verification session not found")
	}

	// 3. TTL: ленивый auto-expire, переход персистится
	if session.Status == models.SessionStatusExpired ||
		(session.Status == models.SessionStatusPending && session.IsExpiredAt(s.now())) {
		if session.Status == models.SessionStatusPending {
			if _, err := s.sessions.Transition(ctx, session.ID, models.SessionStatusPending, models.SessionStatusExpired, nil); err != nil {
				return nil, NewDependencyError("failed to expire verification session", err)
			}
		}
		s.recordAttempt(ctx, session.ID, models.AttemptResultExpired, in)
		return nil, NewExpiredError("verification session has expired, start a new one")
	}

	// 4. Терминальные сессии не верифицируются повторно
	if session.Status != models.SessionStatusPending {
		s.recordAttempt(ctx, session.ID, models.AttemptResultAlreadyCompleted, in)
		return nil, NewConflictError("verification session is already " + session.Status)
	}

	// 5. Адрес: сохранённый всегда приоритетнее аргумента (one-shot late bind)
	var address string
	if session.WalletAddress != nil {
		address = *session.WalletAddress
	} else {
		if in.WalletAddress == "" {
			return nil, NewValidationError("wallet address is required for this session")
		}
		if !solana.IsValidAddress(in.WalletAddress) {
			return nil, NewValidationError("invalid wallet address format")
		}
		if err := s.sessions.BindWallet(ctx, session.ID, in.WalletAddress); err != nil {
			return nil, NewDependencyError("failed to bind wallet address", err)
		}
		address = in.WalletAddress
		session.WalletAddress = &address
	}

	// 6. Криптографическая проверка подписи над сохранённым message.
	// Несовпадение терминально: challenge одноразовый, replay исключён.
	ok, sigErr := solana.VerifySignedMessage(session.Message, in.Signature, address)
	if sigErr != nil {
		s.log.Debug("signature decode failure", zap.Error(sigErr))
	}
	if !ok {
		if _, err := s.sessions.Transition(ctx, session.ID, models.SessionStatusPending, models.SessionStatusFailed, nil); err != nil {
			return nil, NewDependencyError("failed to mark session failed", err)
		}
		s.recordAttempt(ctx, session.ID, models.AttemptResultInvalidSignature, in)
		s.publishFailed(ctx, session, "invalid_signature")
		return nil, NewAuthenticationError("signature does not match wallet address")
	}

	// 7. Правила гильдии: сбой деградирует до "правил нет", не валит запрос
	rules, err := s.rules.ListByGuild(ctx, session.GuildID)
	if err != nil {
		s.log.Warn("failed to load guild contract rules, proceeding without rules",
			zap.String("guild_id", session.GuildID), zap.Error(err))
		rules = nil
	}
	contracts := make([]string, 0, len(rules))
	for _, rule := range rules {
		contracts = append(contracts, rule.ContractAddress)
	}

	// 8. Oracle. Сбой транспорта ретраибелен, сессия остаётся pending.
	octx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()
	ownership, err := s.oracle.CheckOwnership(octx, address, contracts)
	if err != nil {
		return nil, NewDependencyError("nft ownership lookup failed", err)
	}

	// 9. Оценка правил: достаточно одного выполненного; без правил — fallback
	// на "держит хотя бы один подходящий токен"
	evaluations := make([]ContractEvaluation, 0, len(rules))
	isVerified := false
	for _, rule := range rules {
		owned := ownership.ByContract[rule.ContractAddress]
		meets := owned >= rule.RequiredCount()
		if meets {
			isVerified = true
		}
		evaluations = append(evaluations, ContractEvaluation{
			ContractAddress:  rule.ContractAddress,
			RoleID:           rule.RoleID,
			RoleName:         rule.RoleName,
			RequiredNFTCount: rule.RequiredCount(),
			OwnedCount:       owned,
			MeetsRequirement: meets,
		})
	}
	if len(rules) == 0 {
		isVerified = ownership.IsVerified
	}

	// 10. Upsert пользовательской записи + снапшот + история
	verifiedAt := s.now()
	rec := models.UserVerification{
		DiscordID:     session.DiscordID,
		GuildID:       session.GuildID,
		WalletAddress: &address,
		IsVerified:    isVerified,
		LastVerified:  &verifiedAt,
	}
	if in.Username != "" {
		rec.Username = &in.Username
	} else if session.Username != nil {
		rec.Username = session.Username
	}
	userRec, err := s.users.Upsert(ctx, rec)
	if err != nil {
		return nil, NewDependencyError("failed to persist user verification record", err)
	}
	if err := s.users.ReplaceSnapshot(ctx, userRec.ID, ownership.NFTs); err != nil {
		s.log.Warn("failed to replace nft snapshot", zap.Error(err))
	}
	if err := s.users.AppendHistory(ctx, userRec.ID, models.AttemptResultVerified, ownership.NFTCount); err != nil {
		s.log.Warn("failed to append verification history", zap.Error(err))
	}

	// 11. Терминальный переход. При гонке побеждает один — проигравший
	// получает conflict, verified_at не перезаписывается.
	newStatus := models.SessionStatusCompleted
	if isVerified {
		newStatus = models.SessionStatusVerified
	}
	moved, err := s.sessions.Transition(ctx, session.ID, models.SessionStatusPending, newStatus, &verifiedAt)
	if err != nil {
		return nil, NewDependencyError("failed to finalize verification session", err)
	}
	if !moved {
		s.recordAttempt(ctx, session.ID, models.AttemptResultAlreadyCompleted, in)
		return nil, NewConflictError("verification session was finalized concurrently")
	}
	session.Status = newStatus
	session.VerifiedAt = &verifiedAt

	// 12. Audit
	s.recordAttempt(ctx, session.ID, models.AttemptResultVerified, in)

	s.publishCompleted(ctx, session, address, isVerified, ownership.NFTCount, evaluations)

	s.log.Info("verification session finalized",
		zap.String("discord_id", session.DiscordID),
		zap.String("guild_id", session.GuildID),
		zap.String("status", newStatus),
		zap.Int("nft_count", ownership.NFTCount),
	)

	return &VerifyResult{
		Session: session.View(false),
		Verification: VerificationOutcome{
			WalletAddress: address,
			NFTCount:      ownership.NFTCount,
			IsVerified:    isVerified,
			NFTs:          ownership.NFTs,
			Contracts:     evaluations,
			ByContract:    ownership.ByContract,
			VerifiedAt:    verifiedAt,
		},
	}, nil
}

func (s *VerificationService) available() error {
	if !s.cfg.VerificationEnabled {
		return &VerificationError{
			Code:    CodeConfiguration,
			Status:  fiber.StatusServiceUnavailable,
			Message: "wallet verification is disabled",
		}
	}
	return nil
}

// recordAttempt — best-effort: сбой audit-лога не меняет исход запроса.
func (s *VerificationService) recordAttempt(ctx context.Context, sessionID uuid.UUID, resultCode string, in VerifyInput) {
	var ipHash, userAgent *string
	if in.RequesterIP != "" {
		sum := sha256.Sum256([]byte(in.RequesterIP))
		v := hex.EncodeToString(sum[:])
		ipHash = &v
	}
	if in.UserAgent != "" {
		ua := in.UserAgent
		userAgent = &ua
	}

	err := s.attempts.Log(ctx, models.VerificationAttempt{
		SessionID:  sessionID,
		ResultCode: resultCode,
		IPHash:     ipHash,
		UserAgent:  userAgent,
	})
	if err != nil {
		s.log.Warn("failed to record verification attempt", zap.Error(err))
	}
}

func (s *VerificationService) publishCompleted(ctx context.Context, session *models.VerificationSession, address string, isVerified bool, nftCount int, evaluations []ContractEvaluation) {
	if s.publisher == nil {
		return
	}
	roleIDs := make([]string, 0, len(evaluations))
	for _, e := range evaluations {
		if e.MeetsRequirement {
			roleIDs = append(roleIDs, e.RoleID)
		}
	}
	_ = s.publisher.Publish(ctx, events.StreamVerification, events.Event{
		Type: events.EventVerificationCompleted,
		Payload: map[string]any{
			"token":          session.Token,
			"discord_id":     session.DiscordID,
			"guild_id":       session.GuildID,
			"wallet_address": address,
			"is_verified":    isVerified,
			"nft_count":      nftCount,
			"role_ids":       roleIDs,
		},
	})
}

func (s *VerificationService) publishFailed(ctx context.Context, session *models.VerificationSession, reason string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamVerification, events.Event{
		Type: events.EventVerificationFailed,
		Payload: map[string]any{
			"token":      session.Token,
			"discord_id": session.DiscordID,
			"guild_id":   session.GuildID,
			"reason":     reason,
		},
	})
}

// generateToken — 32 байта CSPRNG, URL-safe base64 (256 бит энтропии).
func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// buildSignatureMessage генерирует одноразовый подписываемый payload.
// Наносекундный nonce исключает совпадение payload у двух сессий; message
// создаётся ровно один раз — перегенерация инвалидировала бы подпись,
// которую клиент уже готовит.
func (s *VerificationService) buildSignatureMessage(discordID, walletAddress string, now time.Time) string {
	msg := "Lil Gargs wallet verification\n\n"
	msg += "Discord ID: " + discordID + "\n"
	if walletAddress != "" {
		msg += "Wallet: " + walletAddress + "\n"
	}
	msg += fmt.Sprintf("Nonce: %d\n\n", now.UnixNano())
	msg += fmt.Sprintf("Sign this message to prove you own this wallet. This request expires in %d minutes.", int(s.cfg.SessionTTL.Minutes()))
	return msg
}
