package handlers

import (
	"errors"
	"strconv"

	"catalyst/internal/models"
	"catalyst/internal/services/recommendation"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RecommendationHandler struct {
	recService recommendation.Service
}

func NewRecommendationHandler(recSvc recommendation.Service) *RecommendationHandler {
	return &RecommendationHandler{recService: recSvc}
}

// Create allocates part of the authenticated user's available balance toward
// a campaign.
func (h *RecommendationHandler) Create(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		CampaignID       uint            `json:"campaign_id"`
		Amount           decimal.Decimal `json:"amount"`
		UseGroupBalances bool            `json:"use_group_balances"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.recService.Allocate(recommendation.AllocateInput{
		UserID:           claims.UserID,
		CampaignID:       input.CampaignID,
		Amount:           input.Amount,
		UseGroupBalances: input.UseGroupBalances,
	})
	if err != nil {
		switch {
		case errors.Is(err, recommendation.ErrInvalidAmount):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, recommendation.ErrCampaignNotFound):
			return utils.NotFound(c, "campaign not found")
		case errors.Is(err, recommendation.ErrInsufficientFunds):
			return utils.BadRequest(c, "insufficient available balance")
		}
		return utils.InternalError(c, "allocation failed")
	}
	return utils.Created(c, result)
}

func (h *RecommendationHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid recommendation id")
	}

	rec, err := h.recService.Get(uint(id))
	if err != nil {
		if errors.Is(err, recommendation.ErrNotFound) {
			return utils.NotFound(c, "recommendation not found")
		}
		return utils.InternalError(c, "failed to load recommendation")
	}
	return utils.Success(c, rec)
}

// List is admin-facing: filter by campaign and status.
func (h *RecommendationHandler) List(c *fiber.Ctx) error {
	var campaignID *uint
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "invalid campaign_id")
		}
		v := uint(id)
		campaignID = &v
	}

	var statuses []models.RecommendationStatus
	if raw := c.Query("status"); raw != "" {
		statuses = append(statuses, models.RecommendationStatus(raw))
	}

	pagination := utils.GetPagination(c, 1, 50)
	recs, total, err := h.recService.List(campaignID, statuses, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to list recommendations")
	}
	pagination.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(recs, pagination))
}

func (h *RecommendationHandler) Approve(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid recommendation id")
	}

	if err := h.recService.Approve(uint(id)); err != nil {
		switch {
		case errors.Is(err, recommendation.ErrNotFound):
			return utils.NotFound(c, "recommendation not found")
		case errors.Is(err, recommendation.ErrStateConflict):
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "failed to approve recommendation")
	}
	return utils.Message(c, "recommendation approved")
}

// Reject flips the recommendation to rejected and refunds its amount to the
// owner's personal wallet.
func (h *RecommendationHandler) Reject(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid recommendation id")
	}

	var input struct {
		Memo string `json:"memo"`
	}
	_ = c.BodyParser(&input)

	if err := h.recService.Reject(uint(id), claims.UserID, input.Memo); err != nil {
		switch {
		case errors.Is(err, recommendation.ErrNotFound):
			return utils.NotFound(c, "recommendation not found")
		case errors.Is(err, recommendation.ErrStateConflict):
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "failed to reject recommendation")
	}
	return utils.Message(c, "recommendation rejected")
}
