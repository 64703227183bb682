package database

import (
	"testing"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderFilter_Empty(t *testing.T) {
	assert.Empty(t, orderFilter(models.OrderFilter{}))
}

func TestOrderFilter_AllCriteria(t *testing.T) {
	user := primitive.NewObjectID()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	lo, hi := 100.0, 500.0

	f := orderFilter(models.OrderFilter{
		UserID:        &user,
		Status:        models.OrderStatusShipped,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodBkash,
		StartDate:     &start,
		EndDate:       &end,
		MinAmount:     &lo,
		MaxAmount:     &hi,
	})

	assert.Equal(t, user, f["user"])
	assert.Equal(t, models.OrderStatusShipped, f["status"])
	assert.Equal(t, models.PaymentStatusPaid, f["paymentStatus"])
	assert.Equal(t, models.PaymentMethodBkash, f["paymentMethod"])
	assert.Equal(t, bson.M{"$gte": start, "$lte": end}, f["createdAt"])
	assert.Equal(t, bson.M{"$gte": lo, "$lte": hi}, f["total"])
}

func TestOrderFilter_OpenEndedRange(t *testing.T) {
	lo := 50.0
	f := orderFilter(models.OrderFilter{MinAmount: &lo})
	assert.Equal(t, bson.M{"$gte": lo}, f["total"])
	assert.NotContains(t, f, "createdAt")
}

func TestOrderFilter_SearchEscapesInput(t *testing.T) {
	buyer := primitive.NewObjectID()
	f := orderFilter(models.OrderFilter{
		Search:        "ORD-2024.01",
		SearchUserIDs: []primitive.ObjectID{buyer},
	})

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"orderNumber": primitive.Regex{Pattern: `ORD-2024\.01`, Options: "i"}}, or[0])
	assert.Equal(t, bson.M{"user": bson.M{"$in": []primitive.ObjectID{buyer}}}, or[1])
}

func TestOrderFilter_SearchWithoutMatchingUsers(t *testing.T) {
	f := orderFilter(models.OrderFilter{Search: "abc"})
	or := f["$or"].(bson.A)
	assert.Len(t, or, 1)
}

func TestOrderSort(t *testing.T) {
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		orderSort(models.OrderFilter{}))
	assert.Equal(t,
		bson.D{{Key: "total", Value: 1}, {Key: "_id", Value: 1}},
		orderSort(models.OrderFilter{SortBy: "total", SortAsc: true}))
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		orderSort(models.OrderFilter{SortBy: "password"}))
}

func TestStatusUpdate(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	set := statusUpdate(models.StatusChange{Status: models.OrderStatusShipped, TrackingNumber: "TRK1", At: at})
	assert.Equal(t, bson.M{"status": models.OrderStatusShipped, "updatedAt": at, "trackingNumber": "TRK1"}, set)

	set = statusUpdate(models.StatusChange{Status: models.OrderStatusDelivered, At: at})
	assert.Equal(t, at, set["deliveredDate"])
	assert.NotContains(t, set, "trackingNumber")

	set = statusUpdate(models.StatusChange{Status: models.OrderStatusCancelled, CancelReason: "changed mind", At: at})
	assert.Equal(t, at, set["cancelledDate"])
	assert.Equal(t, "changed mind", set["cancelReason"])
}
