package database

import (
	"context"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(CartsCollection)}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, errors.Wrap(translate(err), "find cart")
	}
	return &cart, nil
}

// IncrementItem bumps the quantity of the line holding productID. It
// reports false when the cart has no such line.
func (r *CartRepository) IncrementItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (bool, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "items.product_id": productID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, errors.Wrap(err, "increment cart item")
	}
	return result.MatchedCount > 0, nil
}

// PushItem appends a line unless the product is already present, creating
// the cart on first use. ErrDuplicate means a concurrent request added the
// same product first.
func (r *CartRepository) PushItem(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "items.product_id": bson.M{"$ne": item.ProductID}},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(translate(err), "push cart item")
}

func (r *CartRepository) SetItemQuantity(ctx context.Context, userID, itemID primitive.ObjectID, quantity int) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "items._id": itemID},
		bson.M{"$set": bson.M{"items.$.quantity": quantity, "updatedAt": time.Now()}},
	)
	if err != nil {
		return errors.Wrap(err, "update cart item")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID primitive.ObjectID) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "items._id": itemID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"_id": itemID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
	)
	if err != nil {
		return errors.Wrap(err, "clear cart")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachItems empties a non-empty cart in one conditional write and returns
// the cart as it was before. Concurrent callers race on the same document,
// so only one of them receives the items; the others get ErrNotFound.
func (r *CartRepository) DetachItems(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "items.0": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&cart)
	if err != nil {
		return nil, errors.Wrap(translate(err), "detach cart items")
	}
	return &cart, nil
}

// RestoreItems puts previously detached lines back at the front of the cart.
// A line whose product was added again in the meantime absorbs the restored
// quantity instead of becoming a second line.
func (r *CartRepository) RestoreItems(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	// Each push lands at position 0, so walk backwards to keep the order.
	for i := len(items) - 1; i >= 0; i-- {
		if err := r.restoreItem(ctx, userID, items[i]); err != nil {
			return errors.Wrap(err, "restore cart items")
		}
	}
	return nil
}

func (r *CartRepository) restoreItem(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error {
	// Two rounds cover a line for the same product being pushed between
	// the increment and the push.
	for attempt := 0; attempt < 2; attempt++ {
		merged, err := r.IncrementItem(ctx, userID, item.ProductID, item.Quantity)
		if err != nil || merged {
			return err
		}
		result, err := r.coll.UpdateOne(ctx,
			bson.M{"userId": userID, "items.product_id": bson.M{"$ne": item.ProductID}},
			bson.M{
				"$push": bson.M{"items": bson.M{"$each": []models.CartItem{item}, "$position": 0}},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			return err
		}
		if result.MatchedCount > 0 {
			return nil
		}
		exists, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID}, options.Count().SetLimit(1))
		if err != nil || exists == 0 {
			return err
		}
	}
	return errors.Errorf("cart line for product %s kept changing", item.ProductID.Hex())
}
