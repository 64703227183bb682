package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductsCollection      = "products"
	UsersCollection         = "users"
	CartsCollection         = "carts"
	OrdersCollection        = "orders"
	PaymentProofsCollection = "payment_proofs"
	SettingsCollection      = "settings"
)

var DB *mongo.Database

// ConnectDB opens a client, pings the server and selects the database.
func ConnectDB(ctx context.Context, uri, name string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}

	DB = client.Database(name)
	log.WithField("database", name).Info("connected to MongoDB")
	return client, nil
}
