package handlers

import (
	"net/http"

	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

func (h *Handler) GetProduct(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	product, err := h.Products.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"product": product})
}

func (h *Handler) GetProducts(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	products, err := h.Products.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"products": products})
}

func (h *Handler) CreateProduct(c echo.Context) error {
	var req services.CreateProductInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	product, err := h.Products.Create(ctx, principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "Product created successfully", map[string]interface{}{"product": product})
}
