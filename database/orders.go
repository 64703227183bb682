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
	"golang.org/x/sync/errgroup"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection)}
}

// Insert stores a new order. ErrDuplicate signals an orderNumber collision.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, order)
	return errors.Wrap(translate(err), "insert order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, errors.Wrap(translate(err), "find order")
	}
	return &order, nil
}

func (r *OrderRepository) Find(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	filter := orderFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	opts := options.Find().
		SetSort(orderSort(f)).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "find orders")
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, errors.Wrap(err, "decode orders")
	}
	return orders, total, nil
}

// FindAll returns every matching order, ignoring paging.
func (r *OrderRepository) FindAll(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	cursor, err := r.coll.Find(ctx, orderFilter(f), options.Find().SetSort(orderSort(f)))
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

// UpdateStatus applies change to an order that is not delivered or
// cancelled. ErrNotFound means the order is missing or already final.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (*models.Order, error) {
	var order models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": models.FinalOrderStatuses}},
		bson.M{"$set": statusUpdate(change)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, errors.Wrap(translate(err), "update order status")
	}
	return &order, nil
}

func (r *OrderRepository) SetTrackingNumber(ctx context.Context, id primitive.ObjectID, trackingNumber string, at time.Time) (*models.Order, error) {
	var order models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"trackingNumber": trackingNumber, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, errors.Wrap(translate(err), "set tracking number")
	}
	return &order, nil
}

// BulkUpdateStatus applies change to every listed order that is not final
// and returns how many were modified.
func (r *OrderRepository) BulkUpdateStatus(ctx context.Context, ids []primitive.ObjectID, change models.StatusChange) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": bson.M{"$nin": models.FinalOrderStatuses}},
		bson.M{"$set": statusUpdate(change)},
	)
	if err != nil {
		return 0, errors.Wrap(err, "bulk update order status")
	}
	return result.ModifiedCount, nil
}

func (r *OrderRepository) AddAdminNote(ctx context.Context, id primitive.ObjectID, note models.AdminNote) (*models.Order, error) {
	var order models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"adminNotes": note},
			"$set":  bson.M{"updatedAt": note.AddedAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, errors.Wrap(translate(err), "add admin note")
	}
	return &order, nil
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return errors.Wrap(err, "set payment status")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats runs the reporting aggregations concurrently.
func (r *OrderRepository) Stats(ctx context.Context, now time.Time) (*models.OrderStats, error) {
	stats := &models.OrderStats{
		DailyRevenue:       []models.DailyRevenue{},
		PaymentMethodStats: []models.PaymentMethodStat{},
	}
	monthStart, dailyStart := models.StatsWindow(now)
	delivered := models.OrderStatusDelivered

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var rows []struct {
			Status models.OrderStatus `bson:"_id"`
			Count  int64              `bson:"count"`
		}
		pipeline := mongo.Pipeline{
			{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		}
		if err := r.aggregate(gctx, pipeline, &rows); err != nil {
			return errors.Wrap(err, "status counts")
		}
		for _, row := range rows {
			stats.TotalOrders += row.Count
			stats.SetStatusCount(row.Status, row.Count)
		}
		return nil
	})

	g.Go(func() error {
		total, err := r.revenue(gctx, bson.M{"status": delivered})
		stats.TotalRevenue = total
		return errors.Wrap(err, "total revenue")
	})

	g.Go(func() error {
		total, err := r.revenue(gctx, bson.M{"status": delivered, "createdAt": bson.M{"$gte": monthStart}})
		stats.MonthlyRevenue = total
		return errors.Wrap(err, "monthly revenue")
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"status": delivered, "createdAt": bson.M{"$gte": dailyStart}}}},
			{{Key: "$group", Value: bson.M{
				"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
				"total": bson.M{"$sum": "$total"},
				"count": bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.M{"_id": 1}}},
		}
		rows := []models.DailyRevenue{}
		if err := r.aggregate(gctx, pipeline, &rows); err != nil {
			return errors.Wrap(err, "daily revenue")
		}
		stats.DailyRevenue = rows
		return nil
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":   "$paymentMethod",
				"count": bson.M{"$sum": 1},
				"total": bson.M{"$sum": "$total"},
			}}},
			{{Key: "$sort", Value: bson.M{"_id": 1}}},
		}
		rows := []models.PaymentMethodStat{}
		if err := r.aggregate(gctx, pipeline, &rows); err != nil {
			return errors.Wrap(err, "payment method stats")
		}
		stats.PaymentMethodStats = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *OrderRepository) revenue(ctx context.Context, match bson.M) (float64, error) {
	var rows []struct {
		Total float64 `bson:"total"`
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total"}}}},
	}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *OrderRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}
