package services

import (
	"context"
	"strings"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartService struct {
	carts    CartStore
	products ProductStore
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

type AddCartItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

// AddItem snapshots the product into the caller's cart. Adding a product
// already in the cart increases that line's quantity.
func (s *CartService) AddItem(ctx context.Context, p models.Principal, in AddCartItemInput) (*models.Cart, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	productID, err := parseID(in.ProductID, "Invalid product_id")
	if err != nil {
		return nil, err
	}
	size := models.DefaultSize
	if strings.TrimSpace(in.Size) != "" {
		size = models.ProductSize(in.Size)
		if !size.Valid() {
			return nil, apperror.New(apperror.InvalidInput, "Invalid size. Must be S, M, L, XL, or XXL")
		}
	}
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, productID)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Product not found")
	}
	if err != nil {
		return nil, storageFailure(err, "find_product", log.Fields{"product_id": in.ProductID})
	}
	price, err := product.UnitPrice()
	if err != nil {
		return nil, apperror.New(apperror.InvalidInput, "Invalid product price")
	}

	fields := log.Fields{"user_id": p.ID.Hex(), "product_id": productID.Hex()}
	incremented, err := s.carts.IncrementItem(ctx, p.ID, productID, quantity)
	if err != nil {
		return nil, storageFailure(err, "add_cart_item", fields)
	}
	if !incremented {
		item := models.CartItem{
			ID:        primitive.NewObjectID(),
			ProductID: productID,
			Name:      product.Name,
			Price:     price,
			Quantity:  quantity,
			Image:     product.PrimaryImage(),
			Size:      size,
		}
		err = s.carts.PushItem(ctx, p.ID, item)
		if isDuplicate(err) {
			// a concurrent add created the line first
			incremented, err = s.carts.IncrementItem(ctx, p.ID, productID, quantity)
			if err == nil && !incremented {
				return nil, apperror.New(apperror.Conflict, "Cart changed concurrently, please retry")
			}
		}
		if err != nil {
			return nil, storageFailure(err, "add_cart_item", fields)
		}
	}
	return s.load(ctx, p.ID)
}

// Get returns the caller's cart with images refreshed from the catalog. A
// user without a cart gets an empty one.
func (s *CartService) Get(ctx context.Context, p models.Principal) (*models.Cart, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.load(ctx, p.ID)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, p models.Principal, itemID string, quantity int) (*models.Cart, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "Invalid itemId format")
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		quantity = 1
	}
	if err := s.requireCart(ctx, p.ID); err != nil {
		return nil, err
	}
	err = s.carts.SetItemQuantity(ctx, p.ID, id, quantity)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Cart item not found")
	}
	if err != nil {
		return nil, storageFailure(err, "update_cart_item", log.Fields{"user_id": p.ID.Hex(), "item_id": itemID})
	}
	return s.load(ctx, p.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, p models.Principal, itemID string) (*models.Cart, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "Invalid itemId format")
	if err != nil {
		return nil, err
	}
	if err := s.requireCart(ctx, p.ID); err != nil {
		return nil, err
	}
	err = s.carts.RemoveItem(ctx, p.ID, id)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Cart item not found")
	}
	if err != nil {
		return nil, storageFailure(err, "remove_cart_item", log.Fields{"user_id": p.ID.Hex(), "item_id": itemID})
	}
	return s.load(ctx, p.ID)
}

func (s *CartService) Clear(ctx context.Context, p models.Principal) (*models.Cart, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	err := s.carts.Clear(ctx, p.ID)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Cart not found")
	}
	if err != nil {
		return nil, storageFailure(err, "clear_cart", log.Fields{"user_id": p.ID.Hex()})
	}
	return s.load(ctx, p.ID)
}

func (s *CartService) requireCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.carts.FindByUser(ctx, userID)
	if isNotFound(err) {
		return apperror.New(apperror.NotFound, "Cart not found")
	}
	if err != nil {
		return storageFailure(err, "find_cart", log.Fields{"user_id": userID.Hex()})
	}
	return nil
}

func (s *CartService) load(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if isNotFound(err) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, storageFailure(err, "find_cart", log.Fields{"user_id": userID.Hex()})
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	s.refreshImages(ctx, cart)
	return cart, nil
}

// refreshImages shows the current primary image of each product, or the
// placeholder for products that were removed from the catalog.
func (s *CartService) refreshImages(ctx context.Context, cart *models.Cart) {
	if len(cart.Items) == 0 {
		return
	}
	products, err := s.products.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		log.WithError(err).WithField("user_id", cart.UserID.Hex()).Warn("could not refresh cart images")
		return
	}
	for i := range cart.Items {
		product, ok := products[cart.Items[i].ProductID]
		if !ok {
			cart.Items[i].Image = models.PlaceholderImage
			continue
		}
		cart.Items[i].Image = product.PrimaryImage()
	}
}
