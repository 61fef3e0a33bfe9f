package handlers

import (
	"errors"

	"catalyst/internal/models"
	"catalyst/internal/services/payment"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentSvc payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentSvc}
}

// Deposit charges the authenticated user through the gateway and credits the
// net amount to their wallet.
func (h *PaymentHandler) Deposit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		Amount          decimal.Decimal `json:"amount"`
		Channel         string          `json:"channel"`
		PaymentMethodID string          `json:"payment_method_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	entry, err := h.paymentService.Charge(c.Context(), payment.ChargeInput{
		UserID:          claims.UserID,
		Amount:          input.Amount,
		Channel:         models.PaymentChannel(input.Channel),
		PaymentMethodID: input.PaymentMethodID,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, payment.ErrUnknownChannel):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, payment.ErrPaymentDeclined):
			return utils.Error(c, fiber.StatusPaymentRequired, "payment was declined")
		}
		return utils.InternalError(c, "deposit failed")
	}
	return utils.Created(c, entry)
}

// Webhook records an asynchronous gateway outcome, e.g. an ACH settlement or
// a late decline.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var input struct {
		UserID        uint            `json:"user_id"`
		Gross         decimal.Decimal `json:"gross"`
		Channel       string          `json:"channel"`
		ExternalTxnID string          `json:"external_txn_id"`
		Succeeded     bool            `json:"succeeded"`
		FailureReason string          `json:"failure_reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	entry, err := h.paymentService.RecordGatewayResult(payment.GatewayResult{
		UserID:        input.UserID,
		Gross:         input.Gross,
		Channel:       models.PaymentChannel(input.Channel),
		ExternalTxnID: input.ExternalTxnID,
		Succeeded:     input.Succeeded,
		FailureReason: input.FailureReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrDuplicateTransaction):
			// Gateways retry webhooks; the first delivery won.
			return utils.Message(c, "already recorded")
		case errors.Is(err, payment.ErrInvalidAmount),
			errors.Is(err, payment.ErrUnknownChannel),
			errors.Is(err, payment.ErrMissingTransactionID):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, payment.ErrUserNotFound):
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to record payment")
	}
	return utils.Success(c, entry)
}
