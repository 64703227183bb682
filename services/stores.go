package services

import (
	"context"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The store interfaces are satisfied by the Mongo repositories in package
// database and by the in-memory store in database/memory. Implementations
// report missing documents with database.ErrNotFound and unique index
// violations with database.ErrDuplicate.

type CartStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	IncrementItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (bool, error)
	PushItem(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error
	SetItemQuantity(ctx context.Context, userID, itemID primitive.ObjectID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID primitive.ObjectID) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
	DetachItems(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	RestoreItems(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
}

type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	SearchIDs(ctx context.Context, term string) ([]primitive.ObjectID, error)
	Insert(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phoneNumber string, at time.Time) (*models.User, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error)
	FindAll(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (*models.Order, error)
	SetTrackingNumber(ctx context.Context, id primitive.ObjectID, trackingNumber string, at time.Time) (*models.Order, error)
	BulkUpdateStatus(ctx context.Context, ids []primitive.ObjectID, change models.StatusChange) (int64, error)
	AddAdminNote(ctx context.Context, id primitive.ObjectID, note models.AdminNote) (*models.Order, error)
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error
	Stats(ctx context.Context, now time.Time) (*models.OrderStats, error)
}

type PaymentProofStore interface {
	Insert(ctx context.Context, proof *models.PaymentProof) error
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.PaymentProof, error)
	Exists(ctx context.Context, orderID primitive.ObjectID) (bool, error)
	Verify(ctx context.Context, orderID primitive.ObjectID, v models.ProofVerification) (*models.PaymentProof, error)
	Delete(ctx context.Context, orderID primitive.ObjectID) error
}

type DeliveryCostStore interface {
	Get(ctx context.Context) (*models.DeliveryCost, error)
	Upsert(ctx context.Context, cost *models.DeliveryCost) error
}

// Stores bundles the repositories one storage driver provides.
type Stores struct {
	Carts         CartStore
	Products      ProductStore
	Users         UserStore
	Orders        OrderStore
	PaymentProofs PaymentProofStore
	DeliveryCosts DeliveryCostStore
}
