package handlers

import (
	"fmt"
	"net/http"

	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

func (h *Handler) SubmitPaymentProof(c echo.Context) error {
	var req services.SubmitProofInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	proof, err := h.Payments.Submit(ctx, principal(c), c.Param("orderId"), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "Payment proof submitted successfully", map[string]interface{}{
		"paymentProof": proof,
	})
}

func (h *Handler) GetPaymentProof(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	proof, err := h.Payments.Get(ctx, principal(c), c.Param("orderId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"paymentProof": proof})
}

func (h *Handler) VerifyPaymentProof(c echo.Context) error {
	var req struct {
		Status     string `json:"status" validate:"required"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	proof, err := h.Payments.Verify(ctx, principal(c), c.Param("orderId"), req.Status, req.AdminNotes)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Payment proof %s successfully", proof.Status), map[string]interface{}{
		"paymentProof": proof,
	})
}
