package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	DefaultSortField = "createdAt"
)

// SortableOrderFields maps accepted sort keys to stored field names.
var SortableOrderFields = map[string]string{
	"createdAt":     "createdAt",
	"updatedAt":     "updatedAt",
	"orderDate":     "orderDate",
	"orderNumber":   "orderNumber",
	"total":         "total",
	"subtotal":      "subtotal",
	"status":        "status",
	"paymentStatus": "paymentStatus",
	"paymentMethod": "paymentMethod",
}

type OrderFilter struct {
	Page          int
	Limit         int
	UserID        *primitive.ObjectID
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	StartDate     *time.Time
	EndDate       *time.Time
	MinAmount     *float64
	MaxAmount     *float64
	Search        string
	// SearchUserIDs are buyers whose name or email matched Search.
	SearchUserIDs []primitive.ObjectID
	SortBy        string
	SortAsc       bool
}

// Normalize clamps paging and resolves the sort field.
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if _, ok := SortableOrderFields[f.SortBy]; !ok {
		f.SortBy = DefaultSortField
	}
}

func (f OrderFilter) Skip() int64 {
	return int64((f.Page - 1) * f.Limit)
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalOrders: total,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type DailyRevenue struct {
	Date  string  `bson:"_id" json:"date"`
	Total float64 `bson:"total" json:"total"`
	Count int64   `bson:"count" json:"count"`
}

type PaymentMethodStat struct {
	Method PaymentMethod `bson:"_id" json:"method"`
	Count  int64         `bson:"count" json:"count"`
	Total  float64       `bson:"total" json:"total"`
}

type OrderStats struct {
	TotalOrders        int64               `json:"totalOrders"`
	PendingOrders      int64               `json:"pendingOrders"`
	ProcessingOrders   int64               `json:"processingOrders"`
	ShippedOrders      int64               `json:"shippedOrders"`
	DeliveredOrders    int64               `json:"deliveredOrders"`
	CancelledOrders    int64               `json:"cancelledOrders"`
	TotalRevenue       float64             `json:"totalRevenue"`
	MonthlyRevenue     float64             `json:"monthlyRevenue"`
	DailyRevenue       []DailyRevenue      `json:"dailyRevenue"`
	PaymentMethodStats []PaymentMethodStat `json:"paymentMethodStats"`
}

// SetStatusCount records the count for one status bucket.
func (s *OrderStats) SetStatusCount(status OrderStatus, n int64) {
	switch status {
	case OrderStatusPending:
		s.PendingOrders = n
	case OrderStatusProcessing:
		s.ProcessingOrders = n
	case OrderStatusShipped:
		s.ShippedOrders = n
	case OrderStatusDelivered:
		s.DeliveredOrders = n
	case OrderStatusCancelled:
		s.CancelledOrders = n
	}
}

// StatsWindow returns the start of the current month and of the daily
// revenue window relative to now.
func StatsWindow(now time.Time) (monthStart, dailyStart time.Time) {
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	dailyStart = now.AddDate(0, 0, -30)
	return monthStart, dailyStart
}

type ExportRow struct {
	OrderNumber   string        `json:"orderNumber"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	Total         float64       `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	OrderDate     time.Time     `json:"orderDate"`
	DeliveredDate *time.Time    `json:"deliveredDate,omitempty"`
	Items         string        `json:"items"`
}
