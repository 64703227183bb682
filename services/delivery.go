package services

import (
	"context"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
)

// DeliveryService resolves shipping fees from the configured rate table.
type DeliveryService struct {
	store    DeliveryCostStore
	defaults models.DeliveryRates
	now      func() time.Time
}

func NewDeliveryService(store DeliveryCostStore, defaults models.DeliveryRates) *DeliveryService {
	return &DeliveryService{store: store, defaults: defaults, now: time.Now}
}

// CostForCity picks the inside-Dhaka rate when the city mentions Dhaka in
// any case. An empty city gets the outside rate.
func CostForCity(city string, rates models.DeliveryRates) float64 {
	if strings.Contains(strings.ToLower(city), "dhaka") {
		return rates.DhakaInside
	}
	return rates.DhakaOutside
}

// Rates returns the stored rates, or the defaults when none were saved.
func (s *DeliveryService) Rates(ctx context.Context) (models.DeliveryRates, error) {
	cost, err := s.store.Get(ctx)
	if isNotFound(err) {
		return s.defaults, nil
	}
	if err != nil {
		return models.DeliveryRates{}, err
	}
	return cost.DeliveryRates, nil
}

// Resolve never fails: when the rates cannot be loaded it charges the
// inside-Dhaka default.
func (s *DeliveryService) Resolve(ctx context.Context, address models.ShippingAddress) float64 {
	rates, err := s.Rates(ctx)
	if err != nil {
		log.WithError(err).WithField("city", address.City).Warn("delivery rates unavailable, using fallback")
		return s.defaults.DhakaInside
	}
	return CostForCity(address.City, rates)
}

func (s *DeliveryService) Get(ctx context.Context, p models.Principal) (models.DeliveryRates, error) {
	if err := requireStaff(p); err != nil {
		return models.DeliveryRates{}, err
	}
	rates, err := s.Rates(ctx)
	if err != nil {
		return models.DeliveryRates{}, storageFailure(err, "get_delivery_cost", nil)
	}
	return rates, nil
}

// Set replaces both rates. Nil values mean the field was omitted.
func (s *DeliveryService) Set(ctx context.Context, p models.Principal, dhakaInside, dhakaOutside *float64) (models.DeliveryRates, error) {
	if err := requireStaff(p); err != nil {
		return models.DeliveryRates{}, err
	}
	if dhakaInside == nil || dhakaOutside == nil {
		return models.DeliveryRates{}, apperror.New(apperror.InvalidInput, "Both dhakaInside and dhakaOutside costs are required")
	}
	if *dhakaInside < 0 || *dhakaOutside < 0 {
		return models.DeliveryRates{}, apperror.New(apperror.InvalidInput, "Delivery costs cannot be negative")
	}

	cost := &models.DeliveryCost{
		DeliveryRates: models.DeliveryRates{DhakaInside: *dhakaInside, DhakaOutside: *dhakaOutside},
		UpdatedBy:     p.ID,
		UpdatedAt:     s.now(),
	}
	if err := s.store.Upsert(ctx, cost); err != nil {
		return models.DeliveryRates{}, storageFailure(err, "set_delivery_cost", log.Fields{"user_id": p.ID.Hex()})
	}
	log.WithFields(log.Fields{
		"dhaka_inside":  cost.DhakaInside,
		"dhaka_outside": cost.DhakaOutside,
		"updated_by":    p.ID.Hex(),
	}).Info("delivery costs updated")
	return cost.DeliveryRates, nil
}
