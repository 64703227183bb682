package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := copyProduct(p)
	return &out, nil
}

func (r *ProductRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			found[id] = copyProduct(p)
		}
	}
	return found, nil
}

func (r *ProductRepository) List(_ context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	products := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		products = append(products, copyProduct(p))
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *ProductRepository) Insert(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.products[product.ID]; ok {
		return database.ErrDuplicate
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	stored := copyProduct(product)
	r.s.products[product.ID] = &stored
	return nil
}

// Delete removes a product, leaving carts that reference it dangling.
func (r *ProductRepository) Delete(id primitive.ObjectID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.products, id)
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *UserRepository) Insert(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	for _, u := range r.s.users {
		if u.Email == user.Email || u.ID == user.ID {
			return database.ErrDuplicate
		}
	}
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out := *u
			out.Password = ""
			found[id] = out
		}
	}
	return found, nil
}

func (r *UserRepository) SearchIDs(_ context.Context, term string) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	term = strings.ToLower(term)
	var ids []primitive.ObjectID
	for id, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Email), term) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type DeliveryCostRepository struct {
	s *Store
}

func (r *DeliveryCostRepository) Get(_ context.Context) (*models.DeliveryCost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.delivery == nil {
		return nil, database.ErrNotFound
	}
	out := *r.s.delivery
	return &out, nil
}

func (r *DeliveryCostRepository) Upsert(_ context.Context, cost *models.DeliveryCost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cost.ID = models.DeliveryCostID
	stored := *cost
	r.s.delivery = &stored
	return nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, name, phoneNumber string, at time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.Name = name
	u.PhoneNumber = phoneNumber
	u.UpdatedAt = at
	out := *u
	out.Password = ""
	return &out, nil
}
