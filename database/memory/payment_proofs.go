package memory

import (
	"context"

	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentProofRepository struct {
	s *Store
}

func (r *PaymentProofRepository) Insert(_ context.Context, proof *models.PaymentProof) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.proofs[proof.OrderID]; ok {
		return database.ErrDuplicate
	}
	if proof.ID.IsZero() {
		proof.ID = primitive.NewObjectID()
	}
	stored := *proof
	r.s.proofs[proof.OrderID] = &stored
	return nil
}

func (r *PaymentProofRepository) FindByOrder(_ context.Context, orderID primitive.ObjectID) (*models.PaymentProof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	proof, ok := r.s.proofs[orderID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return withoutScreenshot(proof), nil
}

func (r *PaymentProofRepository) Exists(_ context.Context, orderID primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.proofs[orderID]
	return ok, nil
}

func (r *PaymentProofRepository) Delete(_ context.Context, orderID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.proofs, orderID)
	return nil
}

func (r *PaymentProofRepository) Verify(_ context.Context, orderID primitive.ObjectID, v models.ProofVerification) (*models.PaymentProof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	proof, ok := r.s.proofs[orderID]
	if !ok {
		return nil, database.ErrNotFound
	}
	verifiedBy := v.VerifiedBy
	at := v.At
	proof.Status = v.Status
	proof.VerifiedBy = &verifiedBy
	proof.VerifiedAt = &at
	proof.AdminNotes = v.AdminNotes
	proof.UpdatedAt = v.At
	return withoutScreenshot(proof), nil
}

// Screenshot returns the stored image payload, which read paths omit.
func (r *PaymentProofRepository) Screenshot(orderID primitive.ObjectID) string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if proof, ok := r.s.proofs[orderID]; ok {
		return proof.Screenshot
	}
	return ""
}

func withoutScreenshot(p *models.PaymentProof) *models.PaymentProof {
	out := *p
	out.Screenshot = ""
	out.VerifiedBy = copyPtr(p.VerifiedBy)
	out.VerifiedAt = copyPtr(p.VerifiedAt)
	return &out
}
