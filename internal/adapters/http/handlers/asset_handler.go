package handlers

import (
	"errors"
	"strconv"

	"bgclub-bot/internal/adapters/persistence/repositories"
	"bgclub-bot/internal/adapters/persistence/sheets"
	"bgclub-bot/internal/core/domain"
	"bgclub-bot/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssetHandler exposes the asset catalog over REST for club tooling.
type AssetHandler struct {
	assets repositories.AssetRepository
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(assets repositories.AssetRepository) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// List handles GET /assets
// @Summary List all assets
// @Description Returns every board game in the catalog
// @Tags Assets
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /assets [get]
func (h *AssetHandler) List(c *fiber.Ctx) error {
	assets, err := h.assets.FetchAll(c.Context())
	if err != nil {
		return response.InternalServerError(c, "store unavailable")
	}
	return response.Success(c, "assets", fiber.Map{
		"total":  len(assets),
		"assets": assets,
	})
}

// Search handles GET /assets/search
// @Summary Search assets by field
// @Description Case-insensitive substring search over one catalog column
// @Tags Assets
// @Produce json
// @Param field query string true "Column name" Enums(編號, 英文名稱, 中文名稱, 種類)
// @Param value query string true "Search keyword"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /assets/search [get]
func (h *AssetHandler) Search(c *fiber.Ctx) error {
	field := c.Query("field")
	value := c.Query("value")
	if field == "" || value == "" {
		return response.BadRequest(c, "field and value are required")
	}
	if sheets.AssetFieldIndex(field) < 0 {
		return response.BadRequest(c, "unknown field: "+field)
	}

	assets, err := h.assets.QueryByField(c.Context(), field, value, false)
	if err != nil {
		return response.InternalServerError(c, "store unavailable")
	}
	return response.Success(c, "search results", fiber.Map{
		"total":  len(assets),
		"assets": assets,
	})
}

// Get handles GET /assets/:id
// @Summary Get one asset
// @Tags Assets
// @Produce json
// @Param id path int true "Asset id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "id must be a number")
	}

	asset, err := h.assets.FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return response.InternalServerError(c, "store unavailable")
		}
		return response.InternalServerError(c, "lookup failed")
	}
	if asset == nil {
		return response.NotFound(c, "asset not found")
	}
	return response.Success(c, "asset", asset)
}
