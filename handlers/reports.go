package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListOrders serves the staff listing. Filters, search, sorting and
// paging all come from the query string.
func (h *Handler) ListOrders(c echo.Context) error {
	var q services.OrderQuery
	if err := bind(c, &q); err != nil {
		return fail(c, err)
	}
	f, err := q.Filter()
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.Reports.List(ctx, principal(c), f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{
		"orders":     result.Orders,
		"pagination": result.Pagination,
	})
}

func (h *Handler) GetOrderStats(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	stats, err := h.Reports.Stats(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"stats": stats})
}

func (h *Handler) ExportOrders(c echo.Context) error {
	var q services.ExportQuery
	if err := bind(c, &q); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	export, err := h.Reports.Export(ctx, principal(c), q)
	if err != nil {
		return fail(c, err)
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch export.Format {
	case services.ExportCSV:
		err = services.WriteCSV(&buf, export.Rows)
		contentType = "text/csv; charset=utf-8"
	case services.ExportXLSX:
		err = services.WriteXLSX(&buf, export.Rows)
		contentType = xlsxContentType
	default:
		return respond(c, http.StatusOK, "", map[string]interface{}{
			"data":   export.Rows,
			"format": export.Format,
			"count":  len(export.Rows),
		})
	}
	if err != nil {
		return fail(c, apperror.Wrap(err, "Failed to generate export"))
	}

	filename := fmt.Sprintf("orders-%s.%s", time.Now().Format("20060102"), export.Format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
