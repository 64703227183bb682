package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusVerified ProofStatus = "verified"
	ProofStatusRejected ProofStatus = "rejected"
)

type ProofMethod string

const (
	ProofMethodBkash  ProofMethod = "bkash"
	ProofMethodNagad  ProofMethod = "nagad"
	ProofMethodRocket ProofMethod = "rocket"
	ProofMethodBank   ProofMethod = "bank"
)

func (m ProofMethod) Valid() bool {
	switch m {
	case ProofMethodBkash, ProofMethodNagad, ProofMethodRocket, ProofMethodBank:
		return true
	}
	return false
}

// PaymentProof is buyer-submitted evidence of a manual payment. At most one
// exists per order.
type PaymentProof struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID       primitive.ObjectID  `bson:"order" json:"order"`
	UserID        primitive.ObjectID  `bson:"user" json:"user"`
	TransactionID string              `bson:"transaction_id" json:"transaction_id"`
	PaymentMethod ProofMethod         `bson:"payment_method" json:"payment_method"`
	Amount        float64             `bson:"amount" json:"amount"`
	Screenshot    string              `bson:"screenshot,omitempty" json:"screenshot,omitempty"`
	SenderNumber  string              `bson:"sender_number" json:"sender_number"`
	SenderName    string              `bson:"sender_name" json:"sender_name"`
	PaymentDate   time.Time           `bson:"payment_date" json:"payment_date"`
	Status        ProofStatus         `bson:"status" json:"status"`
	VerifiedBy    *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt    *time.Time          `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	AdminNotes    string              `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	SubmittedAt   time.Time           `bson:"submitted_at" json:"submitted_at"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ProofVerification is a staff decision on a proof.
type ProofVerification struct {
	Status     ProofStatus
	VerifiedBy primitive.ObjectID
	AdminNotes string
	At         time.Time
}
