package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/database/memory"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/handlers"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/bazaarbd/bazaar-backend-go/routes"
	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/bazaarbd/bazaar-backend-go/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	e      *echo.Echo
	tokens *utils.TokenManager
	users  *services.UserService
}

func newAPI(t *testing.T) *api {
	t.Helper()
	s := memory.New()
	stores := services.Stores{
		Carts:         s.Carts(),
		Products:      s.Products(),
		Users:         s.Users(),
		Orders:        s.Orders(),
		PaymentProofs: s.PaymentProofs(),
		DeliveryCosts: s.DeliveryCosts(),
	}
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	delivery := services.NewDeliveryService(stores.DeliveryCosts, models.DefaultDeliveryRates())
	users := services.NewUserService(stores.Users, tokens)
	h := &handlers.Handler{
		Users:    users,
		Products: services.NewProductService(stores.Products),
		Carts:    services.NewCartService(stores.Carts, stores.Products),
		Orders:   services.NewOrderService(stores, delivery, events.LogPublisher{}),
		Payments: services.NewPaymentService(stores.PaymentProofs, stores.Orders, events.LogPublisher{}),
		Reports:  services.NewReportingService(stores.Orders, stores.Users),
		Delivery: delivery,
		Timeout:  5 * time.Second,
	}

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler
	routes.SetupRoutes(e, h, tokens, nil)
	return &api{e: e, tokens: tokens, users: users}
}

// do sends body as JSON and returns the recorder.
func (a *api) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (a *api) register(t *testing.T, name, email string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	return out.Token
}

func (a *api) adminToken(t *testing.T) string {
	t.Helper()
	admin, err := a.users.CreateAdmin(context.Background(), services.RegisterInput{
		Name: "Admin", Email: "admin@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	token, err := a.tokens.GenerateJWT(admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (a *api) createProduct(t *testing.T, adminToken, name, price string) models.Product {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/products", adminToken, map[string]interface{}{
		"name": name, "price": price, "category": "panjabi", "images": []string{"/img/" + name + ".jpg"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Product models.Product `json:"product"`
	}
	decode(t, rec, &out)
	return out.Product
}

func (a *api) checkout(t *testing.T, token string, city string) models.Order {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"shippingAddress": map[string]string{
			"fullName":   "Rahim Uddin",
			"phone":      "01700000000",
			"address":    "House 1, Road 2",
			"city":       city,
			"postalCode": "1207",
		},
		"paymentMethod": "bkash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		envelope
		Order models.Order `json:"order"`
	}
	decode(t, rec, &out)
	assert.Equal(t, "Order created successfully", out.Message)
	return out.Order
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var out envelope
	decode(t, rec, &out)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Message)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	a := newAPI(t)
	a.register(t, "Karim", "karim@example.com")

	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "karim@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(t, http.MethodPut, "/api/v1/users/me", session.Token, map[string]string{
		"name": "Karim Ahmed", "phoneNumber": "01800000000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/users/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "Karim Ahmed", profile.User.Name)
	assert.Equal(t, "01800000000", profile.User.PhoneNumber)
}

func TestLoginValidation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out envelope
	decode(t, rec, &out)
	assert.Equal(t, "email is required", out.Message)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	a := newAPI(t)
	token := a.register(t, "Karim", "karim@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out envelope
	decode(t, rec, &out)
	assert.Equal(t, "Invalid request format", out.Message)
}

func TestProtectedRoutes(t *testing.T) {
	a := newAPI(t)
	userToken := a.register(t, "Karim", "karim@example.com")

	rec := a.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, path := range []string{
		"/api/v1/orders/admin/all",
		"/api/v1/orders/admin/stats",
		"/api/v1/admin/delivery-costs",
	} {
		rec = a.do(t, http.MethodGet, path, userToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec = a.do(t, http.MethodPost, "/api/v1/products", userToken, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken(t)
	panjabi := a.createProduct(t, admin, "Panjabi", "100")
	token := a.register(t, "Karim", "karim@example.com")

	for i := 0; i < 2; i++ {
		rec := a.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
			"product_id": panjabi.ID.Hex(), "quantity": 1, "size": "L",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := a.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Cart models.Cart `json:"cart"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Cart.Items, 1)
	assert.Equal(t, 2, out.Cart.Items[0].Quantity)
	itemID := out.Cart.Items[0].ID.Hex()

	rec = a.do(t, http.MethodPut, "/api/v1/cart/items/"+itemID, token, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &out)
	assert.Equal(t, 1, out.Cart.Items[0].Quantity)

	rec = a.do(t, http.MethodDelete, "/api/v1/cart/items/"+itemID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &out)
	assert.Empty(t, out.Cart.Items)

	rec = a.do(t, http.MethodDelete, "/api/v1/cart/items/"+itemID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutPaymentAndVerification(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken(t)
	panjabi := a.createProduct(t, admin, "Panjabi", "100")
	token := a.register(t, "Karim", "karim@example.com")

	rec := a.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": panjabi.ID.Hex(), "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	order := a.checkout(t, token, "dhaka")
	assert.Equal(t, 200.0, order.Subtotal)
	assert.Equal(t, 60.0, order.DeliveryCost)
	assert.Equal(t, 260.0, order.Total)
	assert.Regexp(t, `^ORD-\d{8}-\d{3}$`, order.OrderNumber)

	rec = a.do(t, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"shippingAddress": order.ShippingAddress,
		"paymentMethod":   "bkash",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orderPath := "/api/v1/orders/" + order.ID.Hex()
	rec = a.do(t, http.MethodPost, orderPath+"/payment-proof", token, map[string]interface{}{
		"transaction_id": "TX123",
		"payment_method": "bkash",
		"amount":         260,
		"screenshot":     "data:image/png;base64,AAAA",
		"sender_number":  "01700000000",
		"sender_name":    "Karim",
		"payment_date":   "2026-10-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "screenshot")

	rec = a.do(t, http.MethodPut, "/api/v1/orders/admin/"+order.ID.Hex()+"/verify-payment", admin, map[string]string{
		"status": "verified", "adminNotes": "matched statement",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified envelope
	decode(t, rec, &verified)
	assert.Equal(t, "Payment proof verified successfully", verified.Message)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/user/"+order.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Order models.Order `json:"order"`
	}
	decode(t, rec, &got)
	assert.Equal(t, models.PaymentStatusPaid, got.Order.PaymentStatus)

	rec = a.do(t, http.MethodGet, orderPath+"/payment-proof", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var proof struct {
		PaymentProof models.PaymentProof `json:"paymentProof"`
	}
	decode(t, rec, &proof)
	assert.Equal(t, models.ProofStatusVerified, proof.PaymentProof.Status)
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken(t)
	panjabi := a.createProduct(t, admin, "Panjabi", "100")
	token := a.register(t, "Karim", "karim@example.com")

	place := func() models.Order {
		rec := a.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
			"product_id": panjabi.ID.Hex(), "quantity": 1,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		return a.checkout(t, token, "Chittagong")
	}
	first, second := place(), place()
	assert.Equal(t, 220.0, first.Total)

	rec := a.do(t, http.MethodPut, "/api/v1/orders/admin/"+first.ID.Hex()+"/status", admin, map[string]string{
		"status": "delivered", "trackingNumber": "TRK-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPut, "/api/v1/orders/"+first.ID.Hex()+"/cancel", token, map[string]string{"reason": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/v1/orders/admin/"+first.ID.Hex()+"/status", admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var invalid envelope
	decode(t, rec, &invalid)
	assert.Equal(t, "status is required", invalid.Message)

	rec = a.do(t, http.MethodPost, "/api/v1/orders/admin/"+second.ID.Hex()+"/note", admin, map[string]string{"note": "call first"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/orders/admin/bulk-status", admin, map[string]interface{}{
		"orderIds": []string{first.ID.Hex(), second.ID.Hex()},
		"status":   "shipped",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bulk struct {
		envelope
		UpdatedCount int64 `json:"updatedCount"`
	}
	decode(t, rec, &bulk)
	assert.Equal(t, int64(1), bulk.UpdatedCount)
	assert.Equal(t, "1 orders updated successfully", bulk.Message)

	rec = a.do(t, http.MethodGet, "/api/v1/orders?page=1&limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Orders     []models.Order    `json:"orders"`
		Pagination models.Pagination `json:"pagination"`
	}
	decode(t, rec, &mine)
	assert.Len(t, mine.Orders, 1)
	assert.Equal(t, int64(2), mine.Pagination.TotalOrders)
	assert.True(t, mine.Pagination.HasNextPage)

	rec = a.do(t, http.MethodGet, "/api/v1/orders?page=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/filtered?status=shipped&search=karim", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &mine)
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, second.ID, mine.Orders[0].ID)
	require.NotNil(t, mine.Orders[0].Customer)
	assert.Equal(t, "karim@example.com", mine.Orders[0].Customer.Email)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Stats models.OrderStats `json:"stats"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, int64(2), stats.Stats.TotalOrders)
	assert.Equal(t, int64(1), stats.Stats.DeliveredOrders)
	assert.Equal(t, 220.0, stats.Stats.TotalRevenue)
}

func TestExportEndpoint(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken(t)
	panjabi := a.createProduct(t, admin, "Panjabi", "100")
	token := a.register(t, "Karim", "karim@example.com")
	rec := a.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": panjabi.ID.Hex(), "quantity": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	order := a.checkout(t, token, "Dhaka")

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var asJSON struct {
		Format string             `json:"format"`
		Count  int                `json:"count"`
		Data   []models.ExportRow `json:"data"`
	}
	decode(t, rec, &asJSON)
	assert.Equal(t, "json", asJSON.Format)
	assert.Equal(t, 1, asJSON.Count)
	assert.Equal(t, "Panjabi (3)", asJSON.Data[0].Items)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/export?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".csv")
	assert.Contains(t, rec.Body.String(), order.OrderNumber)

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/export?format=xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/export?format=pdf", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryCostEndpoints(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken(t)

	rec := a.do(t, http.MethodGet, "/api/v1/admin/delivery-costs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deliveryCosts":{"dhakaInside":60,"dhakaOutside":120}}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/orders/admin/delivery-costs", admin, map[string]float64{"dhakaInside": 80})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/orders/admin/delivery-costs", admin, map[string]float64{
		"dhakaInside": 0, "dhakaOutside": 150,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/orders/admin/delivery-costs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		DeliveryCosts models.DeliveryRates `json:"deliveryCosts"`
	}
	decode(t, rec, &out)
	assert.Equal(t, models.DeliveryRates{DhakaInside: 0, DhakaOutside: 150}, out.DeliveryCosts)
}
