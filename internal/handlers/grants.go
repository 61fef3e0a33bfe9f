package handlers

import (
	"errors"

	"catalyst/internal/models"
	"catalyst/internal/services/grants"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type GrantHandler struct {
	grantService grants.Service
}

func NewGrantHandler(grantSvc grants.Service) *GrantHandler {
	return &GrantHandler{grantService: grantSvc}
}

// Create is the public grant intake endpoint. The donor does not need an
// account; one is provisioned from the email when missing.
func (h *GrantHandler) Create(c *fiber.Ctx) error {
	var input struct {
		Email       string          `json:"email"`
		FirstName   string          `json:"first_name"`
		LastName    string          `json:"last_name"`
		Amount      decimal.Decimal `json:"amount"`
		InvestedSum decimal.Decimal `json:"invested_sum"`
		DAFProvider string          `json:"daf_provider"`
		DAFName     string          `json:"daf_name"`
		CampaignID  *uint           `json:"campaign_id"`
		Reference   string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	grant, err := h.grantService.Create(grants.CreateInput{
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Amount:      input.Amount,
		InvestedSum: input.InvestedSum,
		DAFProvider: input.DAFProvider,
		DAFName:     input.DAFName,
		CampaignID:  input.CampaignID,
		Reference:   input.Reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, grants.ErrInvalidAmount), errors.Is(err, grants.ErrMissingEmail):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, grants.ErrCampaignNotFound):
			return utils.NotFound(c, "campaign not found")
		}
		return utils.InternalError(c, "failed to record grant")
	}
	return utils.Created(c, grant)
}

func (h *GrantHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid grant id")
	}

	grant, err := h.grantService.Get(uint(id))
	if err != nil {
		if errors.Is(err, grants.ErrNotFound) {
			return utils.NotFound(c, "grant not found")
		}
		return utils.InternalError(c, "failed to load grant")
	}
	return utils.Success(c, grant)
}

func (h *GrantHandler) List(c *fiber.Ctx) error {
	var statuses []models.GrantStatus
	if raw := c.Query("status"); raw != "" {
		statuses = append(statuses, models.GrantStatus(raw))
	}

	pagination := utils.GetPagination(c, 1, 50)
	list, total, err := h.grantService.List(statuses, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to list grants")
	}
	pagination.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(list, pagination))
}

// SetInTransit credits the pledge to the donor's wallet and, for designated
// grants, allocates toward the campaign.
func (h *GrantHandler) SetInTransit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid grant id")
	}

	grant, err := h.grantService.SetInTransit(uint(id), claims.UserID)
	if err != nil {
		return h.grantError(c, err, "failed to move grant in transit")
	}
	return utils.Success(c, grant)
}

func (h *GrantHandler) Reject(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid grant id")
	}

	var input struct {
		Memo string `json:"memo"`
	}
	_ = c.BodyParser(&input)

	grant, err := h.grantService.Reject(uint(id), claims.UserID, input.Memo)
	if err != nil {
		return h.grantError(c, err, "failed to reject grant")
	}
	return utils.Success(c, grant)
}

func (h *GrantHandler) MarkReceived(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid grant id")
	}

	grant, err := h.grantService.MarkReceived(uint(id))
	if err != nil {
		return h.grantError(c, err, "failed to mark grant received")
	}
	return utils.Success(c, grant)
}

func (h *GrantHandler) ListProviders(c *fiber.Ctx) error {
	providers, err := h.grantService.ListProviders()
	if err != nil {
		return utils.InternalError(c, "failed to list providers")
	}
	return utils.Success(c, providers)
}

func (h *GrantHandler) grantError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, grants.ErrNotFound):
		return utils.NotFound(c, "grant not found")
	case errors.Is(err, grants.ErrStateConflict):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, grants.ErrInsufficientFunds):
		return utils.Conflict(c, "funds already spent elsewhere")
	}
	return utils.InternalError(c, fallback)
}
