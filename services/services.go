// Package services holds the business operations behind the HTTP handlers.
// Every exported operation takes the calling Principal and returns
// *apperror.Error values for anything a client should see.
package services

import (
	"context"
	"errors"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/metrics"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const internalMessage = "Internal server error"

func requireUser(p models.Principal) error {
	if !p.Authenticated() {
		return apperror.New(apperror.Unauthenticated, "Authentication required")
	}
	return nil
}

func requireStaff(p models.Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return apperror.New(apperror.Unauthorized, "Admin access required")
	}
	return nil
}

// storageFailure logs an unexpected storage error and hides it from clients.
func storageFailure(err error, operation string, fields log.Fields) error {
	metrics.DBErrors.WithLabelValues(operation).Inc()
	log.WithError(err).WithFields(fields).WithField("operation", operation).Error("storage failure")
	return apperror.Wrap(err, internalMessage)
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, database.ErrDuplicate)
}

func parseID(raw, message string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperror.New(apperror.InvalidInput, message)
	}
	return id, nil
}

// publish sends an event without failing the caller's operation.
func publish(ctx context.Context, publisher events.Publisher, e events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event_type": e.Type,
			"order_id":   e.OrderID,
		}).Warn("failed to publish event")
	}
}
