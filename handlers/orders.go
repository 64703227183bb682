package handlers

import (
	"fmt"
	"net/http"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

type statusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber"`
}

type bulkStatusRequest struct {
	OrderIDs       []string `json:"orderIds"`
	Status         string   `json:"status" validate:"required"`
	TrackingNumber string   `json:"trackingNumber"`
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req services.CreateOrderInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.Orders.Create(ctx, principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "Order created successfully", map[string]interface{}{"order": order})
}

// GetMyOrders lists the caller's orders, newest first.
func (h *Handler) GetMyOrders(c echo.Context) error {
	page, limit := 1, models.DefaultPageLimit
	var status string
	err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		String("status", &status).
		BindError()
	if err != nil {
		return fail(c, apperror.New(apperror.InvalidInput, "page and limit must be numbers"))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.Orders.ListMine(ctx, principal(c), page, limit, status)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{
		"orders":     result.Orders,
		"pagination": result.Pagination,
	})
}

func (h *Handler) GetOrder(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.Orders.Get(ctx, principal(c), c.Param("orderId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"order": order})
}

func (h *Handler) CancelOrder(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.Orders.Cancel(ctx, principal(c), c.Param("orderId"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Order cancelled successfully", map[string]interface{}{"order": order})
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, principal(c), c.Param("orderId"), req.Status, req.TrackingNumber)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Order status updated successfully", map[string]interface{}{"order": order})
}

func (h *Handler) AddAdminNote(c echo.Context) error {
	var req struct {
		Note string `json:"note"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	order, err := h.Orders.AddAdminNote(ctx, principal(c), c.Param("orderId"), req.Note)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Admin note added successfully", map[string]interface{}{"order": order})
}

func (h *Handler) BulkUpdateOrderStatus(c echo.Context) error {
	var req bulkStatusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	updated, err := h.Orders.BulkUpdateStatus(ctx, principal(c), req.OrderIDs, req.Status, req.TrackingNumber)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("%d orders updated successfully", updated), map[string]interface{}{
		"updatedCount": updated,
	})
}
