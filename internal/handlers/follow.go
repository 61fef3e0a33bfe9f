package handlers

import (
	"errors"
	"strconv"

	"catalyst/internal/models"
	"catalyst/internal/services/follow"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type FollowHandler struct {
	followService follow.Service
}

func NewFollowHandler(followSvc follow.Service) *FollowHandler {
	return &FollowHandler{followService: followSvc}
}

// Request asks to follow another user's investment activity.
func (h *FollowHandler) Request(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	followeeID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "invalid user id")
	}

	fr, err := h.followService.Request(claims.UserID, uint(followeeID))
	if err != nil {
		switch {
		case errors.Is(err, follow.ErrSelfFollow):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, follow.ErrUserNotFound):
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to create follow request")
	}
	return utils.Created(c, fr)
}

// Incoming lists the caller's pending follow requests.
func (h *FollowHandler) Incoming(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	requests, err := h.followService.ListIncoming(claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to load follow requests")
	}
	return utils.Success(c, requests)
}

func (h *FollowHandler) Accept(c *fiber.Ctx) error {
	return h.resolve(c, h.followService.Accept)
}

func (h *FollowHandler) Decline(c *fiber.Ctx) error {
	return h.resolve(c, h.followService.Decline)
}

func (h *FollowHandler) resolve(c *fiber.Ctx, action func(requestID, followeeID uint) (*models.FollowRequest, error)) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	requestID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	fr, err := action(uint(requestID), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, follow.ErrNotFound):
			return utils.NotFound(c, "follow request not found")
		case errors.Is(err, follow.ErrNotRecipient):
			return utils.Forbidden(c, "follow request addressed to another user")
		case errors.Is(err, follow.ErrStateConflict):
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "failed to update follow request")
	}
	return utils.Success(c, fr)
}
