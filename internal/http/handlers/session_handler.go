package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lil-gargs/backend/internal/http/dto"
	"github.com/lil-gargs/backend/internal/services"
	"go.uber.org/zap"
)

type SessionHandler struct {
	verification *services.VerificationService
	log          *zap.Logger
}

func NewSessionHandler(verification *services.VerificationService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{verification: verification, log: log}
}

// CreateSession создаёт сессию верификации для портала.
// POST /verification/session
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req struct {
		DiscordID     string `json:"discordId"`
		GuildID       string `json:"guildId"`
		WalletAddress string `json:"walletAddress"`
		Username      string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	result, err := h.verification.CreateSession(c.Context(), services.CreateSessionInput{
		DiscordID:     req.DiscordID,
		GuildID:       req.GuildID,
		WalletAddress: req.WalletAddress,
		Username:      req.Username,
	})
	if err != nil {
		return respondServiceError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateSessionResponse{
		Success:   true,
		Token:     result.Token,
		Message:   result.Message,
		ExpiresAt: result.ExpiresAt,
		Status:    result.Status,
	})
}

// GetSession возвращает сессию по токену, message включён — портал должен
// показать пользователю, что именно подписывать.
// GET /verification/session/:token
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	token := c.Params("token")

	view, err := h.verification.FindSessionByToken(c.Context(), token, true)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	if view == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "verification session not found", Code: services.CodeNotFound})
	}

	return c.JSON(dto.SessionResponse{Success: true, Session: view})
}

// VerifySession — sign-and-verify handshake, вызывается порталом.
// POST /verification/session/verify
func (h *SessionHandler) VerifySession(c *fiber.Ctx) error {
	var req struct {
		Token         string `json:"token"`
		Signature     string `json:"signature"`
		Username      string `json:"username"`
		WalletAddress string `json:"walletAddress"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	result, err := h.verification.VerifySession(c.Context(), services.VerifyInput{
		Token:         req.Token,
		Signature:     req.Signature,
		Username:      req.Username,
		WalletAddress: req.WalletAddress,
		RequesterIP:   c.IP(),
		UserAgent:     c.Get("User-Agent"),
	})
	if err != nil {
		return respondServiceError(c, h.log, err)
	}

	return c.JSON(dto.VerifyResponse{
		Success:      true,
		Session:      result.Session,
		Verification: result.Verification,
	})
}

// respondServiceError переводит таксономию сервиса в HTTP. Стектрейсы и
// детали зависимостей наружу не уходят — только короткое сообщение.
func respondServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if verr, ok := services.AsVerificationError(err); ok {
		if verr.Err != nil {
			log.Warn("verification request failed", zap.String("code", verr.Code), zap.Error(verr.Err))
		}
		return c.Status(verr.Status).JSON(dto.ErrorResponse{Error: verr.Message, Code: verr.Code})
	}
	log.Error("unexpected error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
}
