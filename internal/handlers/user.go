package handlers

import (
	"errors"

	"catalyst/internal/services/ledger"
	"catalyst/internal/services/user"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 100

type UserHandler struct {
	userService   user.Service
	ledgerService ledger.Service
}

func NewUserHandler(userSvc user.Service, ledgerSvc ledger.Service) *UserHandler {
	return &UserHandler{userService: userSvc, ledgerService: ledgerSvc}
}

// Me returns the authenticated user's profile together with the available
// balance (personal wallet plus group sub-balances).
func (h *UserHandler) Me(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	profile, err := h.userService.Get(claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to load profile")
	}

	available, err := h.ledgerService.AvailableBalance(claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to compute balance")
	}

	profile.Password = ""
	return utils.Success(c, fiber.Map{
		"user":              profile,
		"available_balance": available,
	})
}

// BalanceHistory pages through the authenticated user's ledger entries,
// newest first.
func (h *UserHandler) BalanceHistory(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	pagination := utils.GetPagination(c, 1, maxHistoryLimit)
	entries, total, err := h.ledgerService.HistoryForUser(claims.UserID, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to load history")
	}
	pagination.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(entries, pagination))
}
