package handlers

import (
	"errors"

	"catalyst/internal/services/campaign"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CampaignHandler struct {
	campaignService campaign.Service
}

func NewCampaignHandler(campaignSvc campaign.Service) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignSvc}
}

func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	var input struct {
		Name                  string          `json:"name"`
		Property              string          `json:"property"`
		Description           string          `json:"description"`
		ContactFullName       string          `json:"contact_full_name"`
		ContactEmail          string          `json:"contact_email"`
		AddedTotalAdminRaised decimal.Decimal `json:"added_total_admin_raised"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	created, err := h.campaignService.Create(campaign.CreateInput{
		Name:                  input.Name,
		Property:              input.Property,
		Description:           input.Description,
		ContactFullName:       input.ContactFullName,
		ContactEmail:          input.ContactEmail,
		AddedTotalAdminRaised: input.AddedTotalAdminRaised,
	})
	if err != nil {
		if errors.Is(err, campaign.ErrMissingName) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "failed to create campaign")
	}
	return utils.Created(c, created)
}

func (h *CampaignHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid campaign id")
	}

	view, err := h.campaignService.Get(uint(id))
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return utils.NotFound(c, "campaign not found")
		}
		return utils.InternalError(c, "failed to load campaign")
	}
	return utils.Success(c, view)
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	views, err := h.campaignService.List()
	if err != nil {
		return utils.InternalError(c, "failed to list campaigns")
	}
	return utils.Success(c, views)
}
