package handlers

import (
	"errors"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/usecase"
	correctiondto "github.com/LavaJover/shvark-price-service/internal/usecase/dto/correction"
	"github.com/gofiber/fiber/v2"
)

type CorrectionHandler struct {
	uc usecase.CorrectionUsecase
}

func NewCorrectionHandler(uc usecase.CorrectionUsecase) *CorrectionHandler {
	return &CorrectionHandler{uc: uc}
}

type createCorrectionRequest struct {
	ScopeType string    `json:"scope_type"`
	ScopeID   string    `json:"scope_id"`
	StartTs   time.Time `json:"start_ts"`
	EndTs     time.Time `json:"end_ts"`
	Action    string    `json:"action"`
	Value     *float64  `json:"value,omitempty"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
}

type revokeCorrectionRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type correctionResponse struct {
	ID           string     `json:"id"`
	ScopeType    string     `json:"scope_type"`
	ScopeID      string     `json:"scope_id"`
	StartTs      time.Time  `json:"start_ts"`
	EndTs        time.Time  `json:"end_ts"`
	Action       string     `json:"action"`
	Value        *float64   `json:"value,omitempty"`
	Reason       string     `json:"reason"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokedBy    string     `json:"revoked_by,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`
}

func toCorrectionResponse(c *domain.Correction) correctionResponse {
	return correctionResponse{
		ID: c.ID,
		ScopeType: string(c.ScopeType),
		ScopeID: c.ScopeID,
		StartTs: c.StartTs,
		EndTs: c.EndTs,
		Action: string(c.Action),
		Value: c.Value,
		Reason: c.Reason,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		RevokedAt: c.RevokedAt,
		RevokedBy: c.RevokedBy,
		RevokeReason: c.RevokeReason,
	}
}

func (h *CorrectionHandler) Create(c *fiber.Ctx) error {
	var req createCorrectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if req.Actor == "" {
		req.Actor = c.Get("X-Actor")
	}

	correction, err := h.uc.CreateCorrection(c.Context(), &correctiondto.CreateCorrectionInput{
		ScopeType: req.ScopeType,
		ScopeID: req.ScopeID,
		StartTs: req.StartTs,
		EndTs: req.EndTs,
		Action: req.Action,
		Value: req.Value,
		Reason: req.Reason,
		Actor: req.Actor,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"correction": toCorrectionResponse(correction),
	})
}

func (h *CorrectionHandler) Revoke(c *fiber.Ctx) error {
	var req revokeCorrectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if req.Actor == "" {
		req.Actor = c.Get("X-Actor")
	}

	correction, err := h.uc.RevokeCorrection(c.Context(), &correctiondto.RevokeCorrectionInput{
		CorrectionID: c.Params("id"),
		Reason: req.Reason,
		Actor: req.Actor,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"correction": toCorrectionResponse(correction),
	})
}

func (h *CorrectionHandler) Get(c *fiber.Ctx) error {
	correction, err := h.uc.GetCorrectionByID(c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"correction": toCorrectionResponse(correction),
	})
}

func (h *CorrectionHandler) List(c *fiber.Ctx) error {
	input := correctiondto.ListCorrectionsInput{
		ScopeType: c.Query("scope_type"),
		ScopeID: c.Query("scope_id"),
		IncludeRevoked: c.QueryBool("include_revoked"),
		Page: int32(c.QueryInt("page", 1)),
		Limit: int32(c.QueryInt("limit", 50)),
	}
	if activeAt := c.Query("active_at"); activeAt != "" {
		ts, err := time.Parse(time.RFC3339, activeAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "active_at must be RFC3339",
			})
		}
		input.ActiveAt = ts
	}

	corrections, total, err := h.uc.ListCorrections(&input)
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]correctionResponse, len(corrections))
	for i, correction := range corrections {
		items[i] = toCorrectionResponse(correction)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"corrections": items,
		"total":       total,
	})
}

// SearchScope отдает полную историю коррекций области, включая отозванные
func (h *CorrectionHandler) SearchScope(c *fiber.Ctx) error {
	corrections, err := h.uc.SearchScope(c.Params("scopeType"), c.Params("scopeId"))
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]correctionResponse, len(corrections))
	for i, correction := range corrections {
		items[i] = toCorrectionResponse(correction)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"corrections": items,
	})
}

// writeDomainError отображает таксономию доменных ошибок на статусы HTTP
func writeDomainError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   validationErr.Error(),
		})
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   notFoundErr.Error(),
		})
	}

	var conflictErr *domain.OverlapConflictError
	if errors.As(err, &conflictErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":        false,
			"error":          conflictErr.Error(),
			"conflicting_id": conflictErr.ConflictingID,
		})
	}

	switch {
	case errors.Is(err, domain.ErrCorrectionNotFound), errors.Is(err, domain.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, domain.ErrAlreadyRevoked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal error",
	})
}
