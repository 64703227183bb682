package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/metrics"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService struct {
	proofs    PaymentProofStore
	orders    OrderStore
	publisher events.Publisher
	now       func() time.Time
}

func NewPaymentService(proofs PaymentProofStore, orders OrderStore, publisher events.Publisher) *PaymentService {
	return &PaymentService{proofs: proofs, orders: orders, publisher: publisher, now: time.Now}
}

type SubmitProofInput struct {
	TransactionID string      `json:"transaction_id"`
	PaymentMethod string      `json:"payment_method"`
	Amount        json.Number `json:"amount"`
	Screenshot    string      `json:"screenshot"`
	SenderNumber  string      `json:"sender_number"`
	SenderName    string      `json:"sender_name"`
	PaymentDate   string      `json:"payment_date"`
}

func (in SubmitProofInput) complete() bool {
	for _, v := range []string{
		in.TransactionID, in.PaymentMethod, in.Amount.String(), in.Screenshot,
		in.SenderNumber, in.SenderName, in.PaymentDate,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Submit records the buyer's evidence of a manual payment. An order takes
// one proof; a second submission is a conflict.
func (s *PaymentService) Submit(ctx context.Context, p models.Principal, orderID string, in SubmitProofInput) (*models.PaymentProof, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !in.complete() {
		return nil, apperror.New(apperror.InvalidInput, "All fields are required")
	}
	amount, err := strconv.ParseFloat(in.Amount.String(), 64)
	if err != nil || amount <= 0 {
		return nil, apperror.New(apperror.InvalidInput, "Amount must be greater than 0")
	}
	method := models.ProofMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, apperror.New(apperror.InvalidInput, "Invalid payment method. Must be bkash, nagad, rocket, or bank")
	}
	paidAt, err := parseDateParam("payment_date", in.PaymentDate, false)
	if err != nil {
		return nil, err
	}

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
	if order.UserID != p.ID {
		return nil, apperror.New(apperror.Unauthorized, "Not authorized to submit payment proof for this order")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperror.New(apperror.Conflict, "Payment already verified for this order")
	}
	fields := log.Fields{"order_id": orderID, "user_id": p.ID.Hex()}
	exists, err := s.proofs.Exists(ctx, order.ID)
	if err != nil {
		return nil, storageFailure(err, "find_payment_proof", fields)
	}
	if exists {
		return nil, errProofSubmitted
	}

	now := s.now()
	proof := &models.PaymentProof{
		OrderID:       order.ID,
		UserID:        p.ID,
		TransactionID: strings.TrimSpace(in.TransactionID),
		PaymentMethod: method,
		Amount:        amount,
		Screenshot:    in.Screenshot,
		SenderNumber:  strings.TrimSpace(in.SenderNumber),
		SenderName:    strings.TrimSpace(in.SenderName),
		PaymentDate:   *paidAt,
		Status:        models.ProofStatusPending,
		SubmittedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.proofs.Insert(ctx, proof)
	if isDuplicate(err) {
		return nil, errProofSubmitted
	}
	if err != nil {
		return nil, storageFailure(err, "insert_payment_proof", fields)
	}

	if err := s.orders.SetPaymentStatus(ctx, order.ID, models.PaymentStatusPending); err != nil {
		s.discardProof(ctx, order.ID, fields)
		return nil, storageFailure(err, "set_payment_status", fields)
	}

	metrics.PaymentProofsSubmitted.Inc()
	log.WithFields(fields).WithField("transaction_id", proof.TransactionID).Info("payment proof submitted")
	publish(ctx, s.publisher, events.New(events.TypePaymentSubmitted, order.ID, p.ID, map[string]interface{}{
		"amount":         amount,
		"payment_method": method,
		"transaction_id": proof.TransactionID,
	}))

	out := *proof
	out.Screenshot = ""
	return &out, nil
}

// discardProof removes a proof whose order could not be updated, so the
// buyer can submit again.
func (s *PaymentService) discardProof(ctx context.Context, orderID primitive.ObjectID, fields log.Fields) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.proofs.Delete(ctx, orderID); err != nil {
		metrics.DBErrors.WithLabelValues("delete_payment_proof").Inc()
		log.WithError(err).WithFields(fields).Error("failed to discard payment proof")
	}
}

var errProofSubmitted = apperror.New(apperror.Conflict, "Payment proof already submitted for this order")

// Get returns the proof of an order to its buyer or to staff. The
// screenshot is never included.
func (s *PaymentService) Get(ctx context.Context, p models.Principal, orderID string) (*models.PaymentProof, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
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
	if !p.CanAccess(order.UserID) {
		return nil, apperror.New(apperror.Unauthorized, "Not authorized to view payment proof for this order")
	}

	proof, err := s.proofs.FindByOrder(ctx, order.ID)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "No payment proof found for this order")
	}
	if err != nil {
		return nil, storageFailure(err, "find_payment_proof", log.Fields{"order_id": orderID})
	}
	proof.Screenshot = ""
	return proof, nil
}

// Verify records a staff decision and mirrors it onto the order's payment
// status. Deciding again overwrites the previous decision.
func (s *PaymentService) Verify(ctx context.Context, p models.Principal, orderID, status, adminNotes string) (*models.PaymentProof, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	decision := models.ProofStatus(status)
	if decision != models.ProofStatusVerified && decision != models.ProofStatusRejected {
		return nil, apperror.New(apperror.InvalidInput, "Status must be verified or rejected")
	}
	id, err := parseID(orderID, "Invalid order id")
	if err != nil {
		return nil, err
	}
	fields := log.Fields{"order_id": orderID, "status": decision}

	proof, err := s.proofs.Verify(ctx, id, models.ProofVerification{
		Status:     decision,
		VerifiedBy: p.ID,
		AdminNotes: strings.TrimSpace(adminNotes),
		At:         s.now(),
	})
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Payment proof not found")
	}
	if err != nil {
		return nil, storageFailure(err, "verify_payment_proof", fields)
	}

	paymentStatus := models.PaymentStatusFailed
	eventType := events.TypePaymentRejected
	if decision == models.ProofStatusVerified {
		paymentStatus = models.PaymentStatusPaid
		eventType = events.TypePaymentVerified
	}
	err = s.orders.SetPaymentStatus(ctx, id, paymentStatus)
	if isNotFound(err) {
		log.WithFields(fields).Warn("payment proof verified for a missing order")
	} else if err != nil {
		return nil, storageFailure(err, "set_payment_status", fields)
	}

	metrics.PaymentProofsVerified.WithLabelValues(string(decision)).Inc()
	log.WithFields(fields).WithField("verified_by", p.ID.Hex()).Info("payment proof reviewed")
	publish(ctx, s.publisher, events.New(eventType, id, proof.UserID, map[string]interface{}{
		"payment_status": paymentStatus,
		"verified_by":    p.ID.Hex(),
	}))
	proof.Screenshot = ""
	return proof, nil
}
