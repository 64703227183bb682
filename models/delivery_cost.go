package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryCostID is the fixed id of the single delivery cost document.
const DeliveryCostID = "delivery_cost"

const (
	DefaultDhakaInside  = 60.0
	DefaultDhakaOutside = 120.0
)

type DeliveryRates struct {
	DhakaInside  float64 `bson:"dhakaInside" json:"dhakaInside"`
	DhakaOutside float64 `bson:"dhakaOutside" json:"dhakaOutside"`
}

func DefaultDeliveryRates() DeliveryRates {
	return DeliveryRates{DhakaInside: DefaultDhakaInside, DhakaOutside: DefaultDhakaOutside}
}

type DeliveryCost struct {
	ID            string `bson:"_id" json:"-"`
	DeliveryRates `bson:",inline"`
	UpdatedBy     primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
