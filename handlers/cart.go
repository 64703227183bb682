package handlers

import (
	"net/http"

	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

func (h *Handler) AddToCart(c echo.Context) error {
	var req services.AddCartItemInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	cart, err := h.Carts.AddItem(ctx, principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Item added to cart", map[string]interface{}{"cart": cart})
}

func (h *Handler) GetCart(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	cart, err := h.Carts.Get(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"cart": cart})
}

func (h *Handler) UpdateCartItemQuantity(c echo.Context) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	cart, err := h.Carts.UpdateItemQuantity(ctx, principal(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Cart updated", map[string]interface{}{"cart": cart})
}

func (h *Handler) RemoveFromCart(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	cart, err := h.Carts.RemoveItem(ctx, principal(c), c.Param("itemId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Item removed from cart", map[string]interface{}{"cart": cart})
}

func (h *Handler) ClearCart(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	cart, err := h.Carts.Clear(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Cart cleared", map[string]interface{}{"cart": cart})
}
