package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetDeliveryCosts(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	rates, err := h.Delivery.Get(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"deliveryCosts": rates})
}

// UpdateDeliveryCosts replaces both rates. Pointers tell a missing field
// apart from an explicit zero.
func (h *Handler) UpdateDeliveryCosts(c echo.Context) error {
	var req struct {
		DhakaInside  *float64 `json:"dhakaInside"`
		DhakaOutside *float64 `json:"dhakaOutside"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	rates, err := h.Delivery.Set(ctx, principal(c), req.DhakaInside, req.DhakaOutside)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Delivery costs updated successfully", map[string]interface{}{"deliveryCosts": rates})
}
