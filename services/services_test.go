package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/database/memory"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	store     *memory.Store
	stores    Stores
	publisher *recordingPublisher
	delivery  *DeliveryService
	carts     *CartService
	orders    *OrderService
	payments  *PaymentService
	reports   *ReportingService
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	stores := Stores{
		Carts:         store.Carts(),
		Products:      store.Products(),
		Users:         store.Users(),
		Orders:        store.Orders(),
		PaymentProofs: store.PaymentProofs(),
		DeliveryCosts: store.DeliveryCosts(),
	}
	publisher := &recordingPublisher{}
	delivery := NewDeliveryService(stores.DeliveryCosts, models.DefaultDeliveryRates())
	return &testEnv{
		store:     store,
		stores:    stores,
		publisher: publisher,
		delivery:  delivery,
		carts:     NewCartService(stores.Carts, stores.Products),
		orders:    NewOrderService(stores, delivery, publisher),
		payments:  NewPaymentService(stores.PaymentProofs, stores.Orders, publisher),
		reports:   NewReportingService(stores.Orders, stores.Users),
		users:     NewUserService(stores.Users, fakeTokens{}),
	}
}

type fakeTokens struct{}

func (fakeTokens) GenerateJWT(userID primitive.ObjectID, role models.Role) (string, error) {
	return "token-" + userID.Hex() + "-" + string(role), nil
}

func (e *testEnv) product(t *testing.T, name, price string, images ...string) models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Category: "shirts", Images: images}
	require.NoError(t, e.stores.Products.Insert(context.Background(), p))
	return *p
}

func (e *testEnv) customer(t *testing.T, name, email string) models.Principal {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: models.RoleUser}
	require.NoError(t, e.stores.Users.Insert(context.Background(), u))
	return models.Principal{ID: u.ID, Role: models.RoleUser}
}

func (e *testEnv) admin(t *testing.T) models.Principal {
	t.Helper()
	u := &models.User{Name: "Staff", Email: "staff@bazaar.test", Role: models.RoleAdmin}
	require.NoError(t, e.stores.Users.Insert(context.Background(), u))
	return models.Principal{ID: u.ID, Role: models.RoleAdmin}
}

func (e *testEnv) add(t *testing.T, p models.Principal, product models.Product, quantity int) *models.Cart {
	t.Helper()
	cart, err := e.carts.AddItem(context.Background(), p, AddCartItemInput{
		ProductID: product.ID.Hex(),
		Quantity:  quantity,
	})
	require.NoError(t, err)
	return cart
}

func dhakaAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Rahim Uddin",
		Phone:      "01700000000",
		Address:    "House 1, Road 2",
		City:       "Dhaka",
		PostalCode: "1207",
	}
}

// placeOrder builds a cart for p and checks it out.
func (e *testEnv) placeOrder(t *testing.T, p models.Principal) *models.Order {
	t.Helper()
	product := e.product(t, "Panjabi", "100")
	e.add(t, p, product, 1)
	order, err := e.orders.Create(context.Background(), p, CreateOrderInput{
		ShippingAddress: dhakaAddress(),
		PaymentMethod:   string(models.PaymentMethodBkash),
	})
	require.NoError(t, err)
	return order
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "error: %v", err)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
