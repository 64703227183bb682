// Package memory is an in-process storage driver with the same semantics as
// the MongoDB repositories: conditional writes, unique keys and projections.
// It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"sync"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.Mutex
	carts    map[primitive.ObjectID]*models.Cart // keyed by user
	products map[primitive.ObjectID]*models.Product
	users    map[primitive.ObjectID]*models.User
	orders   map[primitive.ObjectID]*models.Order
	proofs   map[primitive.ObjectID]*models.PaymentProof // keyed by order
	delivery *models.DeliveryCost
}

func New() *Store {
	return &Store{
		carts:    make(map[primitive.ObjectID]*models.Cart),
		products: make(map[primitive.ObjectID]*models.Product),
		users:    make(map[primitive.ObjectID]*models.User),
		orders:   make(map[primitive.ObjectID]*models.Order),
		proofs:   make(map[primitive.ObjectID]*models.PaymentProof),
	}
}

func (s *Store) Carts() *CartRepository                 { return &CartRepository{s: s} }
func (s *Store) Products() *ProductRepository           { return &ProductRepository{s: s} }
func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Orders() *OrderRepository               { return &OrderRepository{s: s} }
func (s *Store) PaymentProofs() *PaymentProofRepository { return &PaymentProofRepository{s: s} }
func (s *Store) DeliveryCosts() *DeliveryCostRepository { return &DeliveryCostRepository{s: s} }

// Values handed out are copies; callers never share memory with the store.

func copyCart(c *models.Cart) *models.Cart {
	out := *c
	out.Items = append([]models.CartItem{}, c.Items...)
	return &out
}

func copyOrder(o *models.Order) *models.Order {
	out := *o
	out.Items = append([]models.OrderItem{}, o.Items...)
	out.AdminNotes = append([]models.AdminNote{}, o.AdminNotes...)
	out.DeliveredDate = copyPtr(o.DeliveredDate)
	out.CancelledDate = copyPtr(o.CancelledDate)
	out.Customer = nil
	return &out
}

func copyProduct(p *models.Product) models.Product {
	out := *p
	out.Images = append([]string{}, p.Images...)
	return out
}

func copyPtr[T any](t *T) *T {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
