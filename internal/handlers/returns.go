package handlers

import (
	"errors"
	"strconv"
	"time"

	"catalyst/internal/services/returns"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ReturnsHandler struct {
	returnsService returns.Service
}

func NewReturnsHandler(returnsSvc returns.Service) *ReturnsHandler {
	return &ReturnsHandler{returnsService: returnsSvc}
}

// Distribute splits a gross investment return across a campaign's approved
// contributors, pro-rata on their recommendation amounts.
func (h *ReturnsHandler) Distribute(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		CampaignID           uint            `json:"campaign_id"`
		GrossReturn          decimal.Decimal `json:"gross_return"`
		MemoNote             string          `json:"memo_note"`
		PrivateDebtStartDate *time.Time      `json:"private_debt_start_date"`
		PrivateDebtEndDate   *time.Time      `json:"private_debt_end_date"`
		PostDate             time.Time       `json:"post_date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	master, err := h.returnsService.Distribute(returns.DistributeInput{
		CampaignID:           input.CampaignID,
		GrossReturn:          input.GrossReturn,
		MemoNote:             input.MemoNote,
		CreatedByID:          claims.UserID,
		PrivateDebtStartDate: input.PrivateDebtStartDate,
		PrivateDebtEndDate:   input.PrivateDebtEndDate,
		PostDate:             input.PostDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, returns.ErrInvalidAmount):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, returns.ErrCampaignNotFound):
			return utils.NotFound(c, "campaign not found")
		case errors.Is(err, returns.ErrNoInvestors):
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "failed to distribute return")
	}
	return utils.Created(c, master)
}

func (h *ReturnsHandler) History(c *fiber.Ctx) error {
	var campaignID *uint
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "invalid campaign_id")
		}
		v := uint(id)
		campaignID = &v
	}

	pagination := utils.GetPagination(c, 1, 50)
	masters, total, err := h.returnsService.History(campaignID, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to load return history")
	}
	pagination.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(masters, pagination))
}
