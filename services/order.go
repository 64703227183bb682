package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/metrics"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxOrderNumberAttempts bounds regeneration after a duplicate order number.
const maxOrderNumberAttempts = 5

const (
	cancelledByStaff    = "Cancelled by admin"
	cancelledByCustomer = "Cancelled by customer"
)

type OrderService struct {
	orders    OrderStore
	carts     CartStore
	products  ProductStore
	users     UserStore
	delivery  *DeliveryService
	publisher events.Publisher
	now       func() time.Time
	intn      func(n int) int
}

func NewOrderService(stores Stores, delivery *DeliveryService, publisher events.Publisher) *OrderService {
	return &OrderService{
		orders:    stores.Orders,
		carts:     stores.Carts,
		products:  stores.Products,
		users:     stores.Users,
		delivery:  delivery,
		publisher: publisher,
		now:       time.Now,
		intn:      rand.Intn,
	}
}

type CreateOrderInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

// Create turns the caller's cart into an order. The cart is emptied in the
// same write that reads it, so two concurrent calls cannot both order the
// same items. Any failure afterwards puts the items back.
func (s *OrderService) Create(ctx context.Context, p models.Principal, in CreateOrderInput) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if field := in.ShippingAddress.MissingField(); field != "" {
		return nil, apperror.Newf(apperror.InvalidInput, "Shipping address %s is required", field)
	}
	method := models.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, apperror.New(apperror.InvalidInput, "Invalid payment method")
	}
	fields := log.Fields{"user_id": p.ID.Hex()}

	cart, err := s.carts.DetachItems(ctx, p.ID)
	if isNotFound(err) {
		return nil, s.emptyCartError(ctx, p.ID)
	}
	if err != nil {
		return nil, storageFailure(err, "detach_cart", fields)
	}

	order, err := s.place(ctx, p.ID, cart, method, in)
	if err != nil {
		s.restoreCart(ctx, p.ID, cart.Items)
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	log.WithFields(fields).WithFields(log.Fields{
		"order_id":     order.ID.Hex(),
		"order_number": order.OrderNumber,
		"total":        order.Total,
	}).Info("order created")

	e := events.New(events.TypeOrderCreated, order.ID, order.UserID, map[string]interface{}{
		"total":          order.Total,
		"payment_method": order.PaymentMethod,
		"items":          len(order.Items),
	})
	e.OrderNumber = order.OrderNumber
	publish(ctx, s.publisher, e)
	return order, nil
}

func (s *OrderService) place(ctx context.Context, userID primitive.ObjectID, cart *models.Cart, method models.PaymentMethod, in CreateOrderInput) (*models.Order, error) {
	fields := log.Fields{"user_id": userID.Hex()}

	products, err := s.products.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, storageFailure(err, "find_products", fields)
	}
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, apperror.Newf(apperror.InvalidInput, "Product %s is no longer available", item.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Size:      item.Size,
		})
	}

	subtotal := Subtotal(items)
	deliveryCost := decimal.NewFromFloat(s.delivery.Resolve(ctx, in.ShippingAddress))
	address := in.ShippingAddress
	if strings.TrimSpace(address.Country) == "" {
		address.Country = models.DefaultCountry
	}

	now := s.now()
	order := &models.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal.InexactFloat64(),
		DeliveryCost:    deliveryCost.InexactFloat64(),
		Total:           subtotal.Add(deliveryCost).InexactFloat64(),
		Status:          models.OrderStatusPending,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentStatusPending,
		ShippingAddress: address,
		OrderDate:       now,
		Notes:           strings.TrimSpace(in.Notes),
		AdminNotes:      []models.AdminNote{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.orderNumber(now)
		err = s.orders.Insert(ctx, order)
		if err == nil {
			return order, nil
		}
		if !isDuplicate(err) || attempt == maxOrderNumberAttempts {
			return nil, storageFailure(err, "insert_order", fields)
		}
		metrics.OrderNumberRetries.Inc()
		log.WithFields(fields).WithField("order_number", order.OrderNumber).Warn("order number taken, regenerating")
		order.ID = primitive.NilObjectID
	}
}

// Subtotal sums price times quantity over the items in decimal arithmetic.
func Subtotal(items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// orderNumber formats ORD-YYYYMMDD-NNN.
func (s *OrderService) orderNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%s-%03d", at.Format("20060102"), s.intn(1000))
}

func (s *OrderService) emptyCartError(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.carts.FindByUser(ctx, userID)
	if isNotFound(err) {
		return apperror.New(apperror.InvalidInput, "Cart not found. Please add items to cart first.")
	}
	if err != nil {
		return storageFailure(err, "find_cart", log.Fields{"user_id": userID.Hex()})
	}
	return apperror.New(apperror.InvalidInput, "Cart is empty. Please add items to cart first.")
}

// restoreCart runs even when the request context is already cancelled.
func (s *OrderService) restoreCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.carts.RestoreItems(ctx, userID, items); err != nil {
		metrics.DBErrors.WithLabelValues("restore_cart").Inc()
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID.Hex(),
			"items":   len(items),
		}).Error("failed to restore cart items")
	}
}

func (s *OrderService) Get(ctx context.Context, p models.Principal, orderID string) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(order.UserID) {
		return nil, apperror.New(apperror.Unauthorized, "Not authorized to view this order")
	}
	attachCustomers(ctx, s.users, []*models.Order{order})
	return order, nil
}

// ListMine pages through the caller's orders, newest first. Status "all"
// disables the status filter.
func (s *OrderService) ListMine(ctx context.Context, p models.Principal, page, limit int, status string) (*models.OrderPage, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	f := models.OrderFilter{Page: page, Limit: limit, UserID: &p.ID}
	if status != "" && status != "all" {
		f.Status = models.OrderStatus(status)
		if !f.Status.Valid() {
			return nil, apperror.New(apperror.InvalidInput, "Invalid order status")
		}
	}
	f.Normalize()

	orders, total, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, storageFailure(err, "list_user_orders", log.Fields{"user_id": p.ID.Hex()})
	}
	return &models.OrderPage{Orders: orders, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

// UpdateStatus moves an order to status. Delivered and cancelled orders
// are final; the only change they accept is a tracking number.
func (s *OrderService) UpdateStatus(ctx context.Context, p models.Principal, orderID, status, trackingNumber string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	target := models.OrderStatus(status)
	if !target.Valid() {
		return nil, apperror.New(apperror.InvalidInput, "Invalid order status")
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if target == models.OrderStatusCancelled {
		return s.Cancel(ctx, p, orderID, "")
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	fields := log.Fields{"order_id": order.ID.Hex(), "status": target}
	now := s.now()

	if order.Status.IsFinal() {
		if order.Status != target || trackingNumber == "" {
			return nil, apperror.Newf(apperror.Conflict, "Cannot change status of a %s order", order.Status)
		}
		updated, err := s.orders.SetTrackingNumber(ctx, order.ID, trackingNumber, now)
		if err != nil {
			return nil, storageFailure(err, "set_tracking_number", fields)
		}
		return updated, nil
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, models.StatusChange{
		Status:         target,
		TrackingNumber: trackingNumber,
		At:             now,
	})
	if isNotFound(err) {
		return nil, apperror.New(apperror.Conflict, "Order was completed or cancelled concurrently")
	}
	if err != nil {
		return nil, storageFailure(err, "update_order_status", fields)
	}

	metrics.OrderStatusChanges.WithLabelValues(string(target)).Inc()
	log.WithFields(fields).WithField("from", order.Status).Info("order status updated")
	publish(ctx, s.publisher, events.New(events.TypeOrderStatusChanged, updated.ID, updated.UserID, map[string]interface{}{
		"from":            order.Status,
		"to":              target,
		"tracking_number": updated.TrackingNumber,
	}))
	return updated, nil
}

// Cancel is open to staff for any order and to the buyer for their own.
func (s *OrderService) Cancel(ctx context.Context, p models.Principal, orderID, reason string) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(order.UserID) {
		return nil, apperror.New(apperror.Unauthorized, "Not authorized to cancel this order")
	}
	if err := cancellable(order.Status); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = cancelledByCustomer
		if p.IsAdmin() {
			reason = cancelledByStaff
		}
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, models.StatusChange{
		Status:       models.OrderStatusCancelled,
		CancelReason: reason,
		At:           s.now(),
	})
	if isNotFound(err) {
		// lost a race; report against the status that won
		if current, findErr := s.orders.FindByID(ctx, order.ID); findErr == nil {
			if err := cancellable(current.Status); err != nil {
				return nil, err
			}
		}
		return nil, apperror.New(apperror.Conflict, "Order can no longer be cancelled")
	}
	if err != nil {
		return nil, storageFailure(err, "cancel_order", log.Fields{"order_id": order.ID.Hex()})
	}

	metrics.OrderStatusChanges.WithLabelValues(string(models.OrderStatusCancelled)).Inc()
	log.WithFields(log.Fields{
		"order_id":     order.ID.Hex(),
		"cancelled_by": p.ID.Hex(),
		"reason":       reason,
	}).Info("order cancelled")
	publish(ctx, s.publisher, events.New(events.TypeOrderCancelled, updated.ID, updated.UserID, map[string]interface{}{
		"reason":       reason,
		"cancelled_by": p.ID.Hex(),
	}))
	return updated, nil
}

func cancellable(status models.OrderStatus) error {
	switch status {
	case models.OrderStatusDelivered:
		return apperror.New(apperror.Conflict, "Cannot cancel delivered order")
	case models.OrderStatusCancelled:
		return apperror.New(apperror.Conflict, "Order is already cancelled")
	}
	return nil
}

func (s *OrderService) AddAdminNote(ctx context.Context, p models.Principal, orderID, note string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.New(apperror.InvalidInput, "Note is required")
	}
	id, err := parseID(orderID, "Invalid order id")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.AddAdminNote(ctx, id, models.AdminNote{
		Note:    note,
		AddedBy: p.ID,
		AddedAt: s.now(),
	})
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Order not found")
	}
	if err != nil {
		return nil, storageFailure(err, "add_admin_note", log.Fields{"order_id": orderID})
	}
	return order, nil
}

// BulkUpdateStatus applies one status to many orders, skipping those that
// are already delivered or cancelled. It returns the number changed.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, p models.Principal, orderIDs []string, status, trackingNumber string) (int64, error) {
	if err := requireStaff(p); err != nil {
		return 0, err
	}
	if len(orderIDs) == 0 {
		return 0, apperror.New(apperror.InvalidInput, "Order IDs array is required")
	}
	target := models.OrderStatus(status)
	if !target.Valid() {
		return 0, apperror.New(apperror.InvalidInput, "Invalid order status")
	}
	ids := make([]primitive.ObjectID, 0, len(orderIDs))
	for _, raw := range orderIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return 0, apperror.Newf(apperror.InvalidInput, "Invalid order id %s", raw)
		}
		ids = append(ids, id)
	}

	change := models.StatusChange{
		Status:         target,
		TrackingNumber: strings.TrimSpace(trackingNumber),
		At:             s.now(),
	}
	if target == models.OrderStatusCancelled {
		change.CancelReason = cancelledByStaff
	}
	modified, err := s.orders.BulkUpdateStatus(ctx, ids, change)
	if err != nil {
		return 0, storageFailure(err, "bulk_update_order_status", log.Fields{"orders": len(ids)})
	}
	metrics.OrderStatusChanges.WithLabelValues(string(target)).Add(float64(modified))
	log.WithFields(log.Fields{
		"status":    target,
		"requested": len(ids),
		"modified":  modified,
	}).Info("bulk order status update")
	return modified, nil
}

func (s *OrderService) find(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "Invalid order id")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Order not found")
	}
	if err != nil {
		return nil, storageFailure(err, "find_order", log.Fields{"order_id": orderID})
	}
	return order, nil
}

// attachCustomers fills in buyer name and email. Lookup failures leave the
// orders without customer data.
func attachCustomers(ctx context.Context, store UserStore, orders []*models.Order) {
	if len(orders) == 0 || store == nil {
		return
	}
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			ids = append(ids, o.UserID)
		}
	}
	users, err := store.FindByIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("could not load order customers")
		return
	}
	for _, o := range orders {
		if u, ok := users[o.UserID]; ok {
			o.Customer = &models.CustomerSummary{Name: u.Name, Email: u.Email}
		}
	}
}
