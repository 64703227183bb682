package memory

import (
	"context"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartRepository struct {
	s *Store
}

func (r *CartRepository) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyCart(cart), nil
}

func (r *CartRepository) IncrementItem(_ context.Context, userID, productID primitive.ObjectID, quantity int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return false, nil
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			cart.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *CartRepository) PushItem(_ context.Context, userID primitive.ObjectID, item models.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	cart, ok := r.s.carts[userID]
	if !ok {
		r.s.carts[userID] = &models.Cart{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Items:     []models.CartItem{item},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	for _, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			return database.ErrDuplicate
		}
	}
	cart.Items = append(cart.Items, item)
	cart.UpdatedAt = now
	return nil
}

func (r *CartRepository) SetItemQuantity(_ context.Context, userID, itemID primitive.ObjectID, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, cart := r.findItem(userID, itemID)
	if item == nil {
		return database.ErrNotFound
	}
	item.Quantity = quantity
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepository) RemoveItem(_ context.Context, userID, itemID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return database.ErrNotFound
	}
	for i, item := range cart.Items {
		if item.ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return database.ErrNotFound
}

func (r *CartRepository) Clear(_ context.Context, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return database.ErrNotFound
	}
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepository) DetachItems(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok || len(cart.Items) == 0 {
		return nil, database.ErrNotFound
	}
	before := copyCart(cart)
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = time.Now()
	return before, nil
}

func (r *CartRepository) RestoreItems(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cart, ok := r.s.carts[userID]
	if !ok {
		return nil
	}
	current := make([]models.CartItem, len(cart.Items))
	copy(current, cart.Items)
	restored := make([]models.CartItem, 0, len(items)+len(current))
	for _, item := range items {
		for i := range current {
			if current[i].ProductID == item.ProductID {
				quantity := item.Quantity
				item = current[i]
				item.Quantity += quantity
				current = append(current[:i], current[i+1:]...)
				break
			}
		}
		restored = append(restored, item)
	}
	cart.Items = append(restored, current...)
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepository) findItem(userID, itemID primitive.ObjectID) (*models.CartItem, *models.Cart) {
	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, nil
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i], cart
		}
	}
	return nil, nil
}

// PutCart replaces a user's cart. Used to seed fixtures.
func (r *CartRepository) PutCart(cart *models.Cart) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[cart.UserID] = copyCart(cart)
}
