package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/config"
	"github.com/bazaarbd/bazaar-backend-go/database"
	"github.com/bazaarbd/bazaar-backend-go/database/memory"
	"github.com/bazaarbd/bazaar-backend-go/events"
	"github.com/bazaarbd/bazaar-backend-go/handlers"
	"github.com/bazaarbd/bazaar-backend-go/logger"
	customMiddleware "github.com/bazaarbd/bazaar-backend-go/middleware"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/bazaarbd/bazaar-backend-go/routes"
	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/bazaarbd/bazaar-backend-go/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	app := &cli.App{
		Name:   "bazaar",
		Usage:  "e-commerce order backend",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: serve,
			},
			{
				Name:   "ensure-indexes",
				Usage:  "create the MongoDB indexes and exit",
				Action: ensureIndexes,
			},
			{
				Name:  "seed-admin",
				Usage: "create an admin account if the email is not registered yet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Admin User", EnvVars: []string{"ADMIN_NAME"}},
					&cli.StringFlag{Name: "email", Required: true, EnvVars: []string{"ADMIN_EMAIL"}},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: seedAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("bazaar exited")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// storage holds whichever driver the config selects.
type storage struct {
	stores services.Stores
	ping   routes.Pinger
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on exit")
		s := memory.New()
		return &storage{
			stores: services.Stores{
				Carts:         s.Carts(),
				Products:      s.Products(),
				Users:         s.Users(),
				Orders:        s.Orders(),
				PaymentProofs: s.PaymentProofs(),
				DeliveryCosts: s.DeliveryCosts(),
			},
			close: func() {},
		}, nil
	case "mongo", "":
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	client, err := database.ConnectDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureIndexes(ctx, database.DB); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &storage{
		stores: services.Stores{
			Carts:         database.NewCartRepository(database.DB),
			Products:      database.NewProductRepository(database.DB),
			Users:         database.NewUserRepository(database.DB),
			Orders:        database.NewOrderRepository(database.DB),
			PaymentProofs: database.NewPaymentProofRepository(database.DB),
			DeliveryCosts: database.NewDeliveryCostRepository(database.DB),
		},
		ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.WithError(err).Warn("failed to disconnect from MongoDB")
			}
		},
	}, nil
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("no Kafka brokers configured, domain events go to the log")
		return events.LogPublisher{}
	}
	log.WithFields(log.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("publishing domain events to Kafka")
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

func newUserService(stores services.Stores, cfg *config.Config) (*services.UserService, *utils.TokenManager) {
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	return services.NewUserService(stores.Users, tokens), tokens
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	users, tokens := newUserService(store.stores, cfg)
	delivery := services.NewDeliveryService(store.stores.DeliveryCosts, models.DeliveryRates{
		DhakaInside:  cfg.Delivery.DhakaInside,
		DhakaOutside: cfg.Delivery.DhakaOutside,
	})
	h := &handlers.Handler{
		Users:    users,
		Products: services.NewProductService(store.stores.Products),
		Carts:    services.NewCartService(store.stores.Carts, store.stores.Products),
		Orders:   services.NewOrderService(store.stores, delivery, publisher),
		Payments: services.NewPaymentService(store.stores.PaymentProofs, store.stores.Orders, publisher),
		Reports:  services.NewReportingService(store.stores.Orders, store.stores.Users),
		Delivery: delivery,
		Timeout:  cfg.RequestTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(customMiddleware.RequestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	routes.SetupRoutes(e, h, tokens, store.ping)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureIndexes(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := database.ConnectDB(c.Context, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := database.EnsureIndexes(c.Context, database.DB); err != nil {
		return err
	}
	log.Info("indexes are up to date")
	return nil
}

func seedAdmin(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == "memory" {
		return errors.New("seed-admin needs a persistent storage driver")
	}
	store, err := openStorage(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	users, _ := newUserService(store.stores, cfg)
	admin, err := users.CreateAdmin(c.Context, services.RegisterInput{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		if apperror.Is(err, apperror.Conflict) {
			log.WithField("email", c.String("email")).Info("admin user already exists")
			return nil
		}
		return err
	}
	log.WithFields(log.Fields{"email": admin.Email, "id": admin.ID.Hex()}).Info("admin user created")
	return nil
}
