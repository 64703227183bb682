package database

import (
	"context"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeliveryCostRepository stores the delivery cost singleton as one document
// with a fixed id in the settings collection.
type DeliveryCostRepository struct {
	coll *mongo.Collection
}

func NewDeliveryCostRepository(db *mongo.Database) *DeliveryCostRepository {
	return &DeliveryCostRepository{coll: db.Collection(SettingsCollection)}
}

func (r *DeliveryCostRepository) Get(ctx context.Context) (*models.DeliveryCost, error) {
	var cost models.DeliveryCost
	if err := r.coll.FindOne(ctx, bson.M{"_id": models.DeliveryCostID}).Decode(&cost); err != nil {
		return nil, errors.Wrap(translate(err), "find delivery cost")
	}
	return &cost, nil
}

func (r *DeliveryCostRepository) Upsert(ctx context.Context, cost *models.DeliveryCost) error {
	cost.ID = models.DeliveryCostID
	update := bson.M{"$set": bson.M{
		"dhakaInside":  cost.DhakaInside,
		"dhakaOutside": cost.DhakaOutside,
		"updatedBy":    cost.UpdatedBy,
		"updatedAt":    cost.UpdatedAt,
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": models.DeliveryCostID}, update, options.Update().SetUpsert(true))
	return errors.Wrap(err, "upsert delivery cost")
}
