package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Insert(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	for _, existing := range r.s.orders {
		if existing.OrderNumber == order.OrderNumber || existing.ID == order.ID {
			return database.ErrDuplicate
		}
	}
	r.s.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyOrder(order), nil
}

func (r *OrderRepository) Find(_ context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := r.match(f)
	total := int64(len(matched))

	start := int(f.Skip())
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (r *OrderRepository) FindAll(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.match(f), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, change models.StatusChange) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok || order.Status.IsFinal() {
		return nil, database.ErrNotFound
	}
	change.Apply(order)
	return copyOrder(order), nil
}

func (r *OrderRepository) SetTrackingNumber(_ context.Context, id primitive.ObjectID, trackingNumber string, at time.Time) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	order.TrackingNumber = trackingNumber
	order.UpdatedAt = at
	return copyOrder(order), nil
}

func (r *OrderRepository) BulkUpdateStatus(_ context.Context, ids []primitive.ObjectID, change models.StatusChange) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		order, ok := r.s.orders[id]
		if !ok || seen[id] || order.Status.IsFinal() {
			continue
		}
		seen[id] = true
		change.Apply(order)
		modified++
	}
	return modified, nil
}

func (r *OrderRepository) AddAdminNote(_ context.Context, id primitive.ObjectID, note models.AdminNote) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	order.AdminNotes = append(order.AdminNotes, note)
	order.UpdatedAt = note.AddedAt
	return copyOrder(order), nil
}

func (r *OrderRepository) SetPaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[id]
	if !ok {
		return database.ErrNotFound
	}
	order.PaymentStatus = status
	order.UpdatedAt = time.Now()
	return nil
}

func (r *OrderRepository) Stats(_ context.Context, now time.Time) (*models.OrderStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	monthStart, dailyStart := models.StatsWindow(now)

	stats := &models.OrderStats{}
	counts := make(map[models.OrderStatus]int64)
	daily := make(map[string]*models.DailyRevenue)
	methods := make(map[models.PaymentMethod]*models.PaymentMethodStat)

	for _, o := range r.s.orders {
		stats.TotalOrders++
		counts[o.Status]++

		m, ok := methods[o.PaymentMethod]
		if !ok {
			m = &models.PaymentMethodStat{Method: o.PaymentMethod}
			methods[o.PaymentMethod] = m
		}
		m.Count++
		m.Total += o.Total

		if o.Status != models.OrderStatusDelivered {
			continue
		}
		stats.TotalRevenue += o.Total
		if !o.CreatedAt.Before(monthStart) {
			stats.MonthlyRevenue += o.Total
		}
		if !o.CreatedAt.Before(dailyStart) {
			day := o.CreatedAt.UTC().Format("2006-01-02")
			d, ok := daily[day]
			if !ok {
				d = &models.DailyRevenue{Date: day}
				daily[day] = d
			}
			d.Total += o.Total
			d.Count++
		}
	}

	for status, n := range counts {
		stats.SetStatusCount(status, n)
	}
	stats.DailyRevenue = make([]models.DailyRevenue, 0, len(daily))
	for _, d := range daily {
		stats.DailyRevenue = append(stats.DailyRevenue, *d)
	}
	sort.Slice(stats.DailyRevenue, func(i, j int) bool {
		return stats.DailyRevenue[i].Date < stats.DailyRevenue[j].Date
	})
	stats.PaymentMethodStats = make([]models.PaymentMethodStat, 0, len(methods))
	for _, m := range methods {
		stats.PaymentMethodStats = append(stats.PaymentMethodStats, *m)
	}
	sort.Slice(stats.PaymentMethodStats, func(i, j int) bool {
		return stats.PaymentMethodStats[i].Method < stats.PaymentMethodStats[j].Method
	})
	return stats, nil
}

// match returns sorted copies of the orders selected by f. Callers hold the lock.
func (r *OrderRepository) match(f models.OrderFilter) []models.Order {
	orders := []models.Order{}
	for _, o := range r.s.orders {
		if matches(o, f) {
			orders = append(orders, *copyOrder(o))
		}
	}
	less := orderLess(f.SortBy)
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := &orders[i], &orders[j]
		if f.SortAsc {
			return less(a, b)
		}
		return less(b, a)
	})
	return orders
}

func matches(o *models.Order, f models.OrderFilter) bool {
	switch {
	case f.UserID != nil && o.UserID != *f.UserID:
		return false
	case f.Status != "" && o.Status != f.Status:
		return false
	case f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus:
		return false
	case f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod:
		return false
	case f.StartDate != nil && o.CreatedAt.Before(*f.StartDate):
		return false
	case f.EndDate != nil && o.CreatedAt.After(*f.EndDate):
		return false
	case f.MinAmount != nil && o.Total < *f.MinAmount:
		return false
	case f.MaxAmount != nil && o.Total > *f.MaxAmount:
		return false
	}
	if f.Search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(o.OrderNumber), strings.ToLower(f.Search)) {
		return true
	}
	for _, id := range f.SearchUserIDs {
		if o.UserID == id {
			return true
		}
	}
	return false
}

// orderLess orders by the requested field, breaking ties on id.
func orderLess(field string) func(a, b *models.Order) bool {
	var key func(a, b *models.Order) int
	switch field {
	case "updatedAt":
		key = func(a, b *models.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "orderDate":
		key = func(a, b *models.Order) int { return a.OrderDate.Compare(b.OrderDate) }
	case "orderNumber":
		key = func(a, b *models.Order) int { return strings.Compare(a.OrderNumber, b.OrderNumber) }
	case "total":
		key = func(a, b *models.Order) int { return compareFloat(a.Total, b.Total) }
	case "subtotal":
		key = func(a, b *models.Order) int { return compareFloat(a.Subtotal, b.Subtotal) }
	case "status":
		key = func(a, b *models.Order) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case "paymentStatus":
		key = func(a, b *models.Order) int { return strings.Compare(string(a.PaymentStatus), string(b.PaymentStatus)) }
	case "paymentMethod":
		key = func(a, b *models.Order) int { return strings.Compare(string(a.PaymentMethod), string(b.PaymentMethod)) }
	default:
		key = func(a, b *models.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
	return func(a, b *models.Order) bool {
		if c := key(a, b); c != 0 {
			return c < 0
		}
		return a.ID.Hex() < b.ID.Hex()
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
