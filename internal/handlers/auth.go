package handlers

import (
	"errors"

	"catalyst/internal/services/auth"
	"catalyst/internal/services/user"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
	userService user.Service
}

func NewAuthHandler(authSvc auth.Service, userSvc user.Service) *AuthHandler {
	return &AuthHandler{authService: authSvc, userService: userSvc}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	created, err := h.userService.Register(user.RegisterInput{
		Email:     input.Email,
		Username:  input.Username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken):
			return utils.Conflict(c, err.Error())
		case errors.Is(err, user.ErrInvalidInput):
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "registration failed")
	}

	created.Password = ""
	return utils.Created(c, created)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	loggedIn, accessToken, refreshToken, err := h.authService.Login(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return utils.Unauthorized(c, "invalid credentials")
		}
		return utils.InternalError(c, "login failed")
	}

	loggedIn.Password = ""
	return utils.Success(c, fiber.Map{
		"user":          loggedIn,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	accessToken, refreshToken, err := h.authService.RefreshTokens(input.RefreshToken)
	if err != nil {
		return utils.Unauthorized(c, "invalid refresh token")
	}
	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	if err := h.authService.ChangePassword(claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return utils.Unauthorized(c, "invalid old password")
		case errors.Is(err, auth.ErrWeakPassword):
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "failed to change password")
	}
	return utils.Message(c, "password changed")
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	// Unknown emails get the same answer as known ones.
	if err := h.userService.RequestPasswordReset(c.Context(), input.Email); err != nil &&
		!errors.Is(err, user.ErrNotFound) {
		return utils.InternalError(c, "failed to send reset code")
	}
	return utils.Message(c, "if the account exists, a reset code has been sent")
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	if err := h.userService.ResetPassword(c.Context(), input.Email, input.Code, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidResetCode), errors.Is(err, user.ErrNotFound):
			return utils.Unauthorized(c, "invalid or expired reset code")
		case errors.Is(err, user.ErrInvalidInput):
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "failed to reset password")
	}
	return utils.Message(c, "password reset")
}
