package handlers

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// VisiblePriceHandler — потребительский путь чтения: только производная
// таблица, без вычисления видимости или коррекций на запрос
type VisiblePriceHandler struct {
	repo domain.VisiblePriceRepository
}

func NewVisiblePriceHandler(repo domain.VisiblePriceRepository) *VisiblePriceHandler {
	return &VisiblePriceHandler{repo: repo}
}

type visiblePriceResponse struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	RetailerID        string    `json:"retailer_id"`
	MerchantID        string    `json:"merchant_id,omitempty"`
	SourceID          string    `json:"source_id,omitempty"`
	RawPrice          float64   `json:"raw_price"`
	AppliedMultiplier float64   `json:"applied_multiplier"`
	VisiblePrice      float64   `json:"visible_price"`
	Currency          string    `json:"currency"`
	InStock           bool      `json:"in_stock"`
	ObservedAt        time.Time `json:"observed_at"`
	RecomputedAt      time.Time `json:"recomputed_at"`
}

func (h *VisiblePriceHandler) List(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "product_id is required",
		})
	}

	limit := int32(c.QueryInt("limit", 100))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	rows, err := h.repo.ListVisiblePrices(domain.VisiblePriceFilter{
		ProductID: productID,
		RetailerID: c.Query("retailer_id"),
		Currency: c.Query("currency"),
	}, limit)
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]visiblePriceResponse, len(rows))
	for i, row := range rows {
		items[i] = visiblePriceResponse{
			ID: row.ID,
			ProductID: row.ProductID,
			RetailerID: row.RetailerID,
			MerchantID: row.MerchantID,
			SourceID: row.SourceID,
			RawPrice: row.RawPrice,
			AppliedMultiplier: row.AppliedMultiplier,
			VisiblePrice: row.VisiblePrice,
			Currency: row.Currency,
			InStock: row.InStock,
			ObservedAt: row.ObservedAt,
			RecomputedAt: row.RecomputedAt,
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"prices":  items,
	})
}
