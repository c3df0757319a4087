package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/admin"
	"github.com/Skotchmaster/pc_shop/internal/cart"
	"github.com/Skotchmaster/pc_shop/internal/catalog"
	"github.com/Skotchmaster/pc_shop/internal/checkout"
	"github.com/Skotchmaster/pc_shop/internal/es"
	"github.com/Skotchmaster/pc_shop/internal/httpserver"
	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/mykafka"
	"github.com/Skotchmaster/pc_shop/internal/order"
	"github.com/Skotchmaster/pc_shop/internal/pix"
	"github.com/Skotchmaster/pc_shop/internal/pixconfig"
	"github.com/Skotchmaster/pc_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/pc_shop/pkg/db"
	"github.com/Skotchmaster/pc_shop/pkg/kvstore"
	loggingmw "github.com/Skotchmaster/pc_shop/pkg/middleware/logging"
)

const sessionTTL = 2 * time.Hour

type app struct {
	cfg    config.Config
	logger *slog.Logger

	db      *gorm.DB
	redis   *redis.Client
	events  mykafka.Publisher
	sim     *pix.Simulator
	catalog *catalog.CatalogService
	echo    *echo.Echo
}

// openDB connects and migrates the relational store.
func openDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(openCtx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db}

	m := metrics.New()
	a.events = a.newPublisher()
	store := a.newStore(ctx)

	catalogSvc := &catalog.CatalogService{
		Repo:    &catalog.GormRepo{DB: db},
		Events:  a.events,
		Metrics: m,
	}
	if idx := a.newSearchIndex(); idx != nil {
		catalogSvc.Index = idx
	}
	a.catalog = catalogSvc

	cartSvc := &cart.CartService{Store: store, Products: catalogSvc, TTL: cfg.CartTTL, Metrics: m}
	orderSvc := &order.OrderService{Repo: &order.GormRepo{DB: db}, Metrics: m}
	pixCfgSvc := &pixconfig.Service{Repo: &pixconfig.GormRepo{DB: db}}

	a.sim = &pix.Simulator{
		Config:          pixCfgSvc,
		Provider:        pix.NewHTTPProvider(cfg.PixAPIURL, cfg.PixProviderTimeout),
		Repo:            &pix.GormRepo{DB: db},
		Events:          a.events,
		Metrics:         m,
		Logger:          logger,
		CompletionDelay: cfg.PixCompletionDelay,
	}

	checkoutSvc := &checkout.CheckoutService{
		Store:   store,
		Carts:   cartSvc,
		Orders:  orderSvc,
		Pix:     a.sim,
		Events:  a.events,
		Metrics: m,
		TTL:     sessionTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler:   &catalog.CatalogHTTP{Svc: catalogSvc},
		CartHandler:      &cart.CartHTTP{Svc: cartSvc},
		CheckoutHandler:  &checkout.CheckoutHTTP{Svc: checkoutSvc},
		OrderHandler:     &order.OrderHTTP{Svc: orderSvc},
		PixHandler:       &pix.PixHTTP{Sim: a.sim},
		PixConfigHandler: &pixconfig.PixConfigHTTP{Svc: pixCfgSvc},
		AdminHandler: &admin.AdminHTTP{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    cfg.JWTAccessSecret,
		},
		Metrics:   m,
		JWTSecret: cfg.JWTAccessSecret,
		Ready:     a.ready,
	})
	a.echo = e

	return a, nil
}

func (a *app) newPublisher() mykafka.Publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.logger.Info("kafka disabled", "reason", "KAFKA_BROKERS is empty")
		return mykafka.NopPublisher{}
	}
	p, err := mykafka.NewProducer(a.cfg.KafkaBrokers)
	if err != nil {
		a.logger.Warn("kafka_init_error", "error", err)
		return mykafka.NopPublisher{}
	}
	return p
}

// newStore prefers Redis and falls back to process memory when Redis is not
// configured or not reachable.
func (a *app) newStore(ctx context.Context) kvstore.Store {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("redis disabled", "reason", "REDIS_ADDR is empty, carts kept in memory")
		return kvstore.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis_ping_error", "reason", "carts kept in memory", "error", err)
		_ = client.Close()
		return kvstore.NewMemoryStore()
	}

	a.redis = client
	return kvstore.NewRedisStore(client, a.cfg.ServiceName+":")
}

func (a *app) newSearchIndex() *es.ProductIndex {
	if a.cfg.ESURL == "" {
		return nil
	}
	client, err := es.NewClient(es.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword})
	if err != nil {
		a.logger.Warn("elasticsearch_init_error", "reason", "search served from database", "error", err)
		return nil
	}
	return es.NewProductIndex(client, a.cfg.ESIndex)
}

func (a *app) ready(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if a.redis != nil {
		return a.redis.Ping(ctx).Err()
	}
	return nil
}

// Close releases resources in reverse order of acquisition. Pending PIX
// completions are dropped before the stores they write to go away.
func (a *app) Close() {
	if a.sim != nil {
		a.sim.Close()
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("kafka_close_error", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = pkgdb.Close(a.db)
	}
}
