package database

import (
	"context"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// withoutScreenshot keeps the image payload out of read paths.
var withoutScreenshot = bson.M{"screenshot": 0}

type PaymentProofRepository struct {
	coll *mongo.Collection
}

func NewPaymentProofRepository(db *mongo.Database) *PaymentProofRepository {
	return &PaymentProofRepository{coll: db.Collection(PaymentProofsCollection)}
}

// Insert stores a proof. ErrDuplicate means the order already has one.
func (r *PaymentProofRepository) Insert(ctx context.Context, proof *models.PaymentProof) error {
	if proof.ID.IsZero() {
		proof.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, proof)
	return errors.Wrap(translate(err), "insert payment proof")
}

func (r *PaymentProofRepository) FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	opts := options.FindOne().SetProjection(withoutScreenshot)
	if err := r.coll.FindOne(ctx, bson.M{"order": orderID}, opts).Decode(&proof); err != nil {
		return nil, errors.Wrap(translate(err), "find payment proof")
	}
	return &proof, nil
}

func (r *PaymentProofRepository) Exists(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"order": orderID}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "count payment proofs")
	}
	return n > 0, nil
}

// Delete drops the order's proof. It is a no-op when none exists.
func (r *PaymentProofRepository) Delete(ctx context.Context, orderID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"order": orderID})
	return errors.Wrap(err, "delete payment proof")
}

// Verify records a staff decision on the order's proof and returns the
// updated proof without its screenshot.
func (r *PaymentProofRepository) Verify(ctx context.Context, orderID primitive.ObjectID, v models.ProofVerification) (*models.PaymentProof, error) {
	set := bson.M{
		"status":      v.Status,
		"verified_by": v.VerifiedBy,
		"verified_at": v.At,
		"admin_notes": v.AdminNotes,
		"updatedAt":   v.At,
	}
	var proof models.PaymentProof
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"order": orderID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(withoutScreenshot),
	).Decode(&proof)
	if err != nil {
		return nil, errors.Wrap(translate(err), "verify payment proof")
	}
	return &proof, nil
}
