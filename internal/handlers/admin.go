package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"catalyst/internal/services/export"
	"catalyst/internal/services/user"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	userService   user.Service
	exportService export.Service
}

func NewAdminHandler(userSvc user.Service, exportSvc export.Service) *AdminHandler {
	return &AdminHandler{userService: userSvc, exportService: exportSvc}
}

// AdjustBalance applies a manual, signed wallet correction.
func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		UserID        uint            `json:"user_id"`
		Amount        decimal.Decimal `json:"amount"`
		GrantID       *uint           `json:"grant_id"`
		Reference     string          `json:"reference"`
		AllowNegative bool            `json:"allow_negative"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	entry, err := h.userService.AdminAdjustBalance(user.AdjustBalanceInput{
		UserID:        input.UserID,
		Amount:        input.Amount,
		AdminUsername: claims.Username,
		GrantID:       input.GrantID,
		Reference:     input.Reference,
		AllowNegative: input.AllowNegative,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return utils.NotFound(c, "user not found")
		case errors.Is(err, user.ErrInvalidAmount):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, user.ErrInsufficientFunds):
			return utils.Conflict(c, "adjustment would drive the balance negative")
		}
		return utils.InternalError(c, "failed to adjust balance")
	}
	return utils.Success(c, entry)
}

// AllocateGroupBalance moves funds from a group's pool to a member's
// sub-balance.
func (h *AdminHandler) AllocateGroupBalance(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		UserID  uint            `json:"user_id"`
		GroupID uint            `json:"group_id"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	entry, err := h.userService.AllocateGroupBalance(user.GroupAllocationInput{
		UserID:        input.UserID,
		GroupID:       input.GroupID,
		Amount:        input.Amount,
		AdminUsername: claims.Username,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return utils.NotFound(c, "user or group not found")
		case errors.Is(err, user.ErrInvalidAmount):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, user.ErrInsufficientFunds):
			return utils.Conflict(c, "allocation exceeds the group's remaining pool")
		}
		return utils.InternalError(c, "failed to allocate group balance")
	}
	return utils.Success(c, entry)
}

func (h *AdminHandler) ExportRecommendations(c *fiber.Ctx) error {
	return h.sendWorkbook(c, "recommendations", h.exportService.Recommendations)
}

func (h *AdminHandler) ExportGrants(c *fiber.Ctx) error {
	return h.sendWorkbook(c, "pending_grants", h.exportService.Grants)
}

func (h *AdminHandler) ExportLedger(c *fiber.Ctx) error {
	return h.sendWorkbook(c, "balance_changes", h.exportService.Ledger)
}

func (h *AdminHandler) ExportReturns(c *fiber.Ctx) error {
	var campaignID *uint
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "invalid campaign_id")
		}
		v := uint(id)
		campaignID = &v
	}
	return h.sendWorkbook(c, "returns", func() (*bytes.Buffer, error) {
		return h.exportService.ReturnHistory(campaignID)
	})
}

func (h *AdminHandler) sendWorkbook(c *fiber.Ctx, name string, render func() (*bytes.Buffer, error)) error {
	buf, err := render()
	if err != nil {
		return utils.InternalError(c, "failed to build export")
	}

	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}
