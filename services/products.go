package services

import (
	"context"
	"strings"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
)

// ProductService is the catalog surface the cart and orders read from.
type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, storageFailure(err, "list_products", nil)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, productID string) (*models.Product, error) {
	id, err := parseID(productID, "Invalid product id")
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "Product not found")
	}
	if err != nil {
		return nil, storageFailure(err, "find_product", log.Fields{"product_id": productID})
	}
	return product, nil
}

type CreateProductInput struct {
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Category     string   `json:"category"`
	Images       []string `json:"images"`
	Description  string   `json:"description"`
	IsTrending   bool     `json:"isTrending"`
	IsTopProduct bool     `json:"isTopProduct"`
}

func (s *ProductService) Create(ctx context.Context, p models.Principal, in CreateProductInput) (*models.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:         strings.TrimSpace(in.Name),
		Price:        strings.TrimSpace(in.Price),
		Category:     strings.TrimSpace(in.Category),
		Images:       in.Images,
		Description:  in.Description,
		IsTrending:   in.IsTrending,
		IsTopProduct: in.IsTopProduct,
	}
	if product.Name == "" || product.Category == "" {
		return nil, apperror.New(apperror.InvalidInput, "Name and category are required")
	}
	if _, err := product.UnitPrice(); err != nil {
		return nil, apperror.New(apperror.InvalidInput, "Price must be a non-negative number")
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return nil, storageFailure(err, "insert_product", nil)
	}
	log.WithFields(log.Fields{"product_id": product.ID.Hex(), "name": product.Name}).Info("product created")
	return product, nil
}
