package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"trade-client/internal/payment"
)

// PaymentReturnHandler receives the provider's redirect back to the client
// and drives the completion call. One attempt per redirect; a failure is
// surfaced for the user to retry explicitly.
type PaymentReturnHandler struct {
	handoff *payment.Handoff
}

func NewPaymentReturnHandler(handoff *payment.Handoff) *PaymentReturnHandler {
	return &PaymentReturnHandler{handoff: handoff}
}

// HandleReturn - provider redirect target carrying the transaction id and
// auth token of the checkout that just finished.
func (h *PaymentReturnHandler) HandleReturn(c echo.Context) error {
	paymentID, err := strconv.ParseInt(c.QueryParam("paymentId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid paymentId",
		})
	}

	tid := c.QueryParam("tid")
	authToken := c.QueryParam("authToken")
	if tid == "" || authToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "missing tid or authToken",
		})
	}

	if resultCode := c.QueryParam("authResultCode"); resultCode != "" && resultCode != "0000" {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "FAILED",
			"message": "checkout was not authorized by the provider",
		})
	}

	if err := h.handoff.Complete(c.Request().Context(), paymentID, tid, authToken); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]any{
			"status": "FAILED",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "SUCCESS",
		"paymentId": paymentID,
	})
}
