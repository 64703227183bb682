package database

import (
	"regexp"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// orderFilter translates an OrderFilter into a query document. Free-text
// search is part of the query so counts and pages cover the searched set.
func orderFilter(f models.OrderFilter) bson.M {
	filter := bson.M{}
	if f.UserID != nil {
		filter["user"] = *f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter["paymentStatus"] = f.PaymentStatus
	}
	if f.PaymentMethod != "" {
		filter["paymentMethod"] = f.PaymentMethod
	}
	if f.StartDate != nil || f.EndDate != nil {
		created := bson.M{}
		if f.StartDate != nil {
			created["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			created["$lte"] = *f.EndDate
		}
		filter["createdAt"] = created
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		total := bson.M{}
		if f.MinAmount != nil {
			total["$gte"] = *f.MinAmount
		}
		if f.MaxAmount != nil {
			total["$lte"] = *f.MaxAmount
		}
		filter["total"] = total
	}
	if f.Search != "" {
		or := bson.A{
			bson.M{"orderNumber": primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}},
		}
		if len(f.SearchUserIDs) > 0 {
			or = append(or, bson.M{"user": bson.M{"$in": f.SearchUserIDs}})
		}
		filter["$or"] = or
	}
	return filter
}

func orderSort(f models.OrderFilter) bson.D {
	field, ok := models.SortableOrderFields[f.SortBy]
	if !ok {
		field = models.DefaultSortField
	}
	direction := -1
	if f.SortAsc {
		direction = 1
	}
	sort := bson.D{{Key: field, Value: direction}}
	if field != "_id" {
		// stable pages when the sort key ties
		sort = append(sort, bson.E{Key: "_id", Value: direction})
	}
	return sort
}

// statusUpdate builds the $set document for a status change.
func statusUpdate(change models.StatusChange) bson.M {
	set := bson.M{
		"status":    change.Status,
		"updatedAt": change.At,
	}
	if change.TrackingNumber != "" {
		set["trackingNumber"] = change.TrackingNumber
	}
	switch change.Status {
	case models.OrderStatusDelivered:
		set["deliveredDate"] = change.At
	case models.OrderStatusCancelled:
		set["cancelledDate"] = change.At
		set["cancelReason"] = change.CancelReason
	}
	return set
}
