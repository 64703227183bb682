package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	e := New(TypeOrderCreated, orderID, userID, map[string]interface{}{"total": 310.0})

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeOrderCreated, e.Type)
	assert.Equal(t, orderID.Hex(), e.OrderID)
	assert.Equal(t, userID.Hex(), e.UserID)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestNew_NoUser(t *testing.T) {
	e := New(TypePaymentVerified, primitive.NewObjectID(), primitive.NilObjectID, nil)
	assert.Empty(t, e.UserID)
}

func TestLogPublisher(t *testing.T) {
	var p Publisher = LogPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(TypeOrderCancelled, primitive.NewObjectID(), primitive.NilObjectID, nil)))
	assert.NoError(t, p.Close())
}
