package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lil-gargs/backend/internal/http/dto"
	"github.com/lil-gargs/backend/internal/models"
	"github.com/lil-gargs/backend/internal/repositories"
	"github.com/lil-gargs/backend/internal/solana"
	"go.uber.org/zap"
)

// RuleHandler — админский CRUD правил верификации гильдии. Ядро читает
// правила, мутации идут только отсюда.
type RuleHandler struct {
	ruleRepo *repositories.RuleRepo
	log      *zap.Logger
}

func NewRuleHandler(ruleRepo *repositories.RuleRepo, log *zap.Logger) *RuleHandler {
	return &RuleHandler{ruleRepo: ruleRepo, log: log}
}

// ListRules — GET /admin/guilds/:guildId/rules
func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	if guildID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "guildId is required"})
	}

	rules, err := h.ruleRepo.ListByGuild(c.Context(), guildID)
	if err != nil {
		h.log.Error("failed to list guild rules", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if rules == nil {
		rules = []models.GuildContractRule{}
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: rules})
}

// CreateRule — POST /admin/guilds/:guildId/rules
func (h *RuleHandler) CreateRule(c *fiber.Ctx) error {
	guildID := c.Params("guildId")

	var req struct {
		ContractAddress  string `json:"contractAddress"`
		RequiredNFTCount int    `json:"requiredNftCount"`
		RoleID           string `json:"roleId"`
		RoleName         string `json:"roleName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if guildID == "" || req.ContractAddress == "" || req.RoleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "guildId, contractAddress and roleId are required"})
	}
	if !solana.IsValidAddress(req.ContractAddress) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contract address format"})
	}

	rule := &models.GuildContractRule{
		GuildID:          guildID,
		ContractAddress:  req.ContractAddress,
		RequiredNFTCount: req.RequiredNFTCount,
		RoleID:           req.RoleID,
		RoleName:         req.RoleName,
	}
	if err := h.ruleRepo.Create(c.Context(), rule); err != nil {
		h.log.Error("failed to create guild rule", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: rule})
}

// DeleteRule — DELETE /admin/rules/:id
func (h *RuleHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid rule id"})
	}

	deleted, err := h.ruleRepo.Delete(c.Context(), id)
	if err != nil {
		h.log.Error("failed to delete guild rule", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "rule not found"})
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
