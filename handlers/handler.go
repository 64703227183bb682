package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/middleware"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Handler binds the HTTP API to the services.
type Handler struct {
	Users    *services.UserService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Reports  *services.ReportingService
	Delivery *services.DeliveryService
	// Timeout bounds the storage work of one request.
	Timeout time.Duration
}

func (h *Handler) context(c echo.Context) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func principal(c echo.Context) models.Principal {
	p, _ := c.Get(middleware.PrincipalKey).(models.Principal)
	return p
}

// respond writes the success envelope with payload merged in.
func respond(c echo.Context, status int, message string, payload map[string]interface{}) error {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// fail writes the error envelope for err.
func fail(c echo.Context, err error) error {
	kind := apperror.KindOf(err)
	if kind == apperror.Internal {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
		}).Error("request failed")
	}
	return c.JSON(kind.HTTPStatus(), map[string]interface{}{
		"success": false,
		"message": apperror.Message(err),
	})
}

// bind decodes and validates the request into dst.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperror.New(apperror.InvalidInput, "Invalid request format")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(dst); err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.New(apperror.InvalidInput, err.Error())
	}
	return nil
}

// ErrorHandler renders errors that escaped a handler, including echo's
// own routing errors, in the API envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := apperror.KindOf(err).HTTPStatus()
	message := apperror.Message(err)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		message = http.StatusText(status)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("uri", c.Request().RequestURI).Error("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]interface{}{"success": false, "message": message})
	}
	if err != nil {
		log.WithError(err).Error("failed to write error response")
	}
}
