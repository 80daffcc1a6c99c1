package handlers

import (
	"bgclub-bot/internal/adapters/persistence/repositories"
	"bgclub-bot/internal/core/services"
	"bgclub-bot/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler exposes manager tooling: issuing register keys and reading
// the runtime state.
type AdminHandler struct {
	members  repositories.MemberRepository
	registry *services.SessionRegistry
	flag     *services.FeatureSwitch
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	members repositories.MemberRepository,
	registry *services.SessionRegistry,
	flag *services.FeatureSwitch,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		members:  members,
		registry: registry,
		flag:     flag,
		logger:   logger,
	}
}

// IssueKeysRequest is the body of POST /admin/register-keys
type IssueKeysRequest struct {
	Count int `json:"count"`
}

// IssueKeys handles POST /admin/register-keys
// @Summary Issue registration keys
// @Description Appends fresh single-use registration keys to the member sheet
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueKeysRequest true "Number of keys (1-50)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/register-keys [post]
func (h *AdminHandler) IssueKeys(c *fiber.Ctx) error {
	var req IssueKeysRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Count < 1 || req.Count > 50 {
		return response.BadRequest(c, "count must be between 1 and 50")
	}

	keys := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		key := uuid.New().String()
		if err := h.members.AppendKeyRow(c.Context(), key); err != nil {
			h.logger.Error("❌ key row append failed", zap.Error(err))
			return response.InternalServerError(c, "store unavailable")
		}
		keys = append(keys, key)
	}

	h.logger.Info("🔑 register keys issued", zap.Int("count", len(keys)))
	return response.Created(c, "keys issued", fiber.Map{"keys": keys})
}

// Status handles GET /admin/status
// @Summary Runtime status
// @Description Reports the live session count and the feature switch position
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/status [get]
func (h *AdminHandler) Status(c *fiber.Ctx) error {
	return response.Success(c, "status", fiber.Map{
		"sessions":         h.registry.Size(),
		"features_enabled": h.flag.Enabled(),
	})
}
