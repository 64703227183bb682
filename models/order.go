package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// FinalOrderStatuses have no outgoing transitions.
var FinalOrderStatuses = []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodBkash          PaymentMethod = "bkash"
	PaymentMethodNagad          PaymentMethod = "nagad"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodMobileBanking  PaymentMethod = "mobile_banking"
)

var PaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodBkash,
	PaymentMethodNagad,
	PaymentMethodCard,
	PaymentMethodMobileBanking,
}

func (m PaymentMethod) Valid() bool {
	for _, method := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

const DefaultCountry = "Bangladesh"

type ShippingAddress struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Phone      string `bson:"phone" json:"phone"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// MissingField returns the json name of the first empty required field.
func (a ShippingAddress) MissingField() string {
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"postalCode", a.PostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image" json:"image"`
	Size      ProductSize        `bson:"size" json:"size"`
}

type AdminNote struct {
	Note    string             `bson:"note" json:"note"`
	AddedBy primitive.ObjectID `bson:"added_by" json:"added_by"`
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}

// CustomerSummary is the buyer data attached to staff listings.
type CustomerSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user" json:"user"`
	Customer        *CustomerSummary   `bson:"-" json:"customer,omitempty"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	DeliveryCost    float64            `bson:"deliveryCost" json:"deliveryCost"`
	Total           float64            `bson:"total" json:"total"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	OrderDate       time.Time          `bson:"orderDate" json:"orderDate"`
	DeliveredDate   *time.Time         `bson:"deliveredDate,omitempty" json:"deliveredDate,omitempty"`
	TrackingNumber  string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AdminNotes      []AdminNote        `bson:"adminNotes" json:"adminNotes"`
	CancelReason    string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledDate   *time.Time         `bson:"cancelledDate,omitempty" json:"cancelledDate,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StatusChange describes a status write. Timestamps derived from the
// target status (deliveredDate, cancelledDate) use At.
type StatusChange struct {
	Status         OrderStatus
	TrackingNumber string
	CancelReason   string
	At             time.Time
}

// Apply mutates the order the same way the stores persist a change.
func (c StatusChange) Apply(o *Order) {
	o.Status = c.Status
	o.UpdatedAt = c.At
	if c.TrackingNumber != "" {
		o.TrackingNumber = c.TrackingNumber
	}
	switch c.Status {
	case OrderStatusDelivered:
		at := c.At
		o.DeliveredDate = &at
	case OrderStatusCancelled:
		at := c.At
		o.CancelledDate = &at
		o.CancelReason = c.CancelReason
	}
}
