package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/scistore-service/config"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/pkg/blob"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/fekuna/scistore-service/pkg/search"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	accessH "github.com/fekuna/scistore-service/internal/access/handler"
	accessRepoPkg "github.com/fekuna/scistore-service/internal/access/repository"
	accessUCPkg "github.com/fekuna/scistore-service/internal/access/usecase"

	cartH "github.com/fekuna/scistore-service/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/scistore-service/internal/cart/repository"
	cartUCPkg "github.com/fekuna/scistore-service/internal/cart/usecase"

	catH "github.com/fekuna/scistore-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/scistore-service/internal/category/repository"
	catUCPkg "github.com/fekuna/scistore-service/internal/category/usecase"

	checkoutH "github.com/fekuna/scistore-service/internal/checkout/handler"
	checkoutRepoPkg "github.com/fekuna/scistore-service/internal/checkout/repository"
	checkoutUCPkg "github.com/fekuna/scistore-service/internal/checkout/usecase"

	contentH "github.com/fekuna/scistore-service/internal/content/handler"
	contentRepoPkg "github.com/fekuna/scistore-service/internal/content/repository"
	contentUCPkg "github.com/fekuna/scistore-service/internal/content/usecase"

	invH "github.com/fekuna/scistore-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/scistore-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/scistore-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/scistore-service/internal/inventory/usecase"

	mediaH "github.com/fekuna/scistore-service/internal/media/handler"
	mediaUCPkg "github.com/fekuna/scistore-service/internal/media/usecase"

	orderH "github.com/fekuna/scistore-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/scistore-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/scistore-service/internal/order/usecase"

	prodH "github.com/fekuna/scistore-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/scistore-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/scistore-service/internal/product/usecase"

	quoteH "github.com/fekuna/scistore-service/internal/quote/handler"
	quoteListenerPkg "github.com/fekuna/scistore-service/internal/quote/listener"
	"github.com/fekuna/scistore-service/internal/quote/notify"
	quoteRepoPkg "github.com/fekuna/scistore-service/internal/quote/repository"
	quoteUCPkg "github.com/fekuna/scistore-service/internal/quote/usecase"

	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/internal/product"
	"github.com/fekuna/scistore-service/internal/seo"
	seoH "github.com/fekuna/scistore-service/internal/seo/handler"
	seoUCPkg "github.com/fekuna/scistore-service/internal/seo/usecase"

	telemetryH "github.com/fekuna/scistore-service/internal/telemetry/handler"
	telemetryRepoPkg "github.com/fekuna/scistore-service/internal/telemetry/repository"
	telemetryUCPkg "github.com/fekuna/scistore-service/internal/telemetry/usecase"
)

// registrar is implemented by every HTTP handler.
type registrar interface {
	Register(rt *httpapi.Router)
}

// listener is a long-running event consumer.
type listener interface {
	Start(ctx context.Context)
}

type app struct {
	cfg     *config.Config
	log     logger.ZapLogger
	db      *sqlx.DB
	metrics *metrics.Metrics
	tr      *i18n.Translator

	products product.UseCase
	seo      seo.UseCase

	handler   http.Handler
	listeners []listener
	closers   []func() error
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	if cfg.Logger.Level != "" {
		logConfig.Level = cfg.Logger.Level
	}
	if cfg.Logger.Encoding != "" {
		logConfig.Encoding = cfg.Logger.Encoding
	}
	return logger.NewZapLogger(logConfig)
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

func (a *app) openCache() (cache.Store, error) {
	if a.cfg.Redis.Addr == "" {
		a.log.Warn("Redis address not set, using in-process cache")
		return cache.NewMemoryStore(), nil
	}
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, redisClient.Close)
	a.log.Info("Connected to Redis", zap.String("addr", a.cfg.Redis.Addr))
	return redisClient, nil
}

// openSearch returns nil when Elasticsearch is not configured or not reachable;
// the catalog then searches its cached listing only.
func (a *app) openSearch() *search.Client {
	if len(a.cfg.Elastic.Addresses) == 0 {
		return nil
	}
	esClient, err := search.NewClient(&search.Config{
		Addresses: a.cfg.Elastic.Addresses,
		Username:  a.cfg.Elastic.Username,
		Password:  a.cfg.Elastic.Password,
	})
	if err != nil {
		a.log.Warn("Could not connect to Elasticsearch, search falls back to the catalog cache", zap.Error(err))
		return nil
	}
	a.log.Info("Connected to Elasticsearch", zap.Strings("addresses", a.cfg.Elastic.Addresses))
	return esClient
}

func (a *app) openBlob(ctx context.Context) (blob.Store, error) {
	if blob.Driver(a.cfg.Blob.Driver) != blob.DriverS3 {
		a.log.Warn("Using in-memory blob storage; uploads are lost on restart")
		return blob.NewMemoryStore(), nil
	}
	return blob.NewS3Store(ctx, blob.S3Config{
		Region:          a.cfg.Blob.Region,
		Bucket:          a.cfg.Blob.Bucket,
		Endpoint:        a.cfg.Blob.Endpoint,
		AccessKeyID:     a.cfg.Blob.AccessKeyID,
		SecretAccessKey: a.cfg.Blob.SecretAccessKey,
		PathStyle:       a.cfg.Blob.PathStyle,
	})
}

func (a *app) publisher(topic string) broker.Publisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return broker.NopPublisher{}
	}
	p := broker.NewProducer(&broker.Config{Brokers: a.cfg.Kafka.Brokers, Topic: topic})
	a.closers = append(a.closers, p.Close)
	return p
}

// consumer returns nil when no brokers are configured.
func (a *app) consumer(topic, group string) *broker.KafkaConsumer {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return nil
	}
	c := broker.NewConsumer(&broker.Config{
		Brokers: a.cfg.Kafka.Brokers,
		Topic:   topic,
		GroupID: a.cfg.Kafka.GroupID + "-" + group,
	})
	a.closers = append(a.closers, c.Close)
	a.log.Info("Connected to Kafka consumer", zap.Strings("brokers", a.cfg.Kafka.Brokers), zap.String("topic", topic))
	return c
}

func (a *app) mailer() notify.Mailer {
	if a.cfg.Notify.SMTPAddr == "" {
		a.log.Warn("SMTP address not set, quote notifications are only logged")
		return notify.NewLogMailer(a.log)
	}
	return notify.NewSMTPMailer(&notify.Config{
		SMTPAddr:   a.cfg.Notify.SMTPAddr,
		Username:   a.cfg.Notify.SMTPUsername,
		Password:   a.cfg.Notify.SMTPPassword,
		From:       a.cfg.Notify.From,
		SalesInbox: a.cfg.Notify.SalesInbox,
	})
}

// newApp connects every backing service and wires the modules.
func newApp(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	tr, err := i18n.New()
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	a.tr = tr

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	store, err := a.openCache()
	if err != nil {
		a.Close()
		return nil, err
	}
	blobStore, err := a.openBlob(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	esClient := a.openSearch()
	txManager := postgres.NewTxManager(db)
	orderEvents := a.publisher(cfg.Kafka.OrdersTopic)
	quoteEvents := a.publisher(cfg.Kafka.QuotesTopic)

	// Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	quoteRepo := quoteRepoPkg.NewPGRepository(db)
	accessRepo := accessRepoPkg.NewPGRepository(db)
	contentRepo := contentRepoPkg.NewPGRepository(db)
	telemetryRepo := telemetryRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewStoreRepository(store, cfg.Store.CartExpiry())
	sessionRepo := checkoutRepoPkg.NewStoreRepository(store, cfg.Store.SessionExpiry())

	// UseCases
	accessUC := accessUCPkg.NewAccessUseCase(accessRepo, store, log)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, store, cfg.Store.CatalogTTL(), log)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, catUC, store, esClient, prodUCPkg.Options{
		CatalogTTL:      cfg.Store.CatalogTTL(),
		DefaultPageSize: cfg.Store.DefaultPageSize,
		MaxPageSize:     cfg.Store.MaxPageSize,
	}, log)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, txManager, store, a.metrics, log)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodUC, cart.ShippingPolicy{
		Fee:           cfg.Store.ShippingFee,
		FreeThreshold: cfg.Store.FreeShippingThreshold,
		Currency:      cfg.Store.Currency,
	}, log)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, accessUC, invUC, txManager, orderEvents, log)
	checkoutUC := checkoutUCPkg.NewCheckoutUseCase(checkoutUCPkg.Deps{
		Sessions:  sessionRepo,
		Carts:     cartUC,
		Orders:    orderRepo,
		Inventory: invUC,
		Profiles:  accessUC,
		Tx:        txManager,
		Locks:     store,
		Publisher: orderEvents,
		Metrics:   a.metrics,
	}, checkoutUCPkg.Options{Currency: cfg.Store.Currency}, log)
	notifier := notify.NewQuoteNotifier(a.mailer(), tr, cfg.Notify.SalesInbox)
	quoteUC := quoteUCPkg.NewQuoteUseCase(quoteRepo, notifier, quoteEvents, a.metrics, log)
	contentUC := contentUCPkg.NewContentUseCase(contentRepo, prodUC, store, cfg.Store.ContentTTL(), log)
	telemetryUC := telemetryUCPkg.NewTelemetryUseCase(telemetryRepo, a.metrics, log)
	seoUC := seoUCPkg.NewSEOUseCase(seo.NewBuilder(cfg.Server.BaseURL, cfg.Store.Currency, tr), prodUC, catUC, store, cfg.Store.SitemapTTL(), log)
	mediaUC := mediaUCPkg.NewMediaUseCase(blobStore, prodUC, cfg.Blob.PublicBaseURL, log)
	a.products, a.seo = prodUC, seoUC

	// Listeners
	if c := a.consumer(cfg.Kafka.OrdersTopic, "inventory"); c != nil {
		a.listeners = append(a.listeners, invListenerPkg.NewInventoryListener(c, invUC, log))
	}
	if c := a.consumer(cfg.Kafka.QuotesTopic, "quote-notify"); c != nil {
		a.listeners = append(a.listeners, quoteListenerPkg.NewQuoteListener(c, quoteUC, log))
	}

	// Handlers
	resp := httpapi.NewResponder(tr, log)
	rt := httpapi.NewRouter(resp, accessUC)
	handlers := []registrar{
		catH.NewCategoryHandler(catUC, resp, log),
		prodH.NewProductHandler(prodUC, resp, cfg.Store.MaxPageSize, log),
		invH.NewInventoryHandler(invUC, resp, cfg.Store.LowStockThreshold, log),
		cartH.NewCartHandler(cartUC, resp, log),
		checkoutH.NewCheckoutHandler(checkoutUC, resp, log),
		orderH.NewOrderHandler(orderUC, resp, log),
		quoteH.NewQuoteHandler(quoteUC, resp, log),
		accessH.NewAccessHandler(accessUC, resp, log),
		contentH.NewContentHandler(contentUC, resp, log),
		telemetryH.NewTelemetryHandler(telemetryUC, resp, log),
		seoH.NewSEOHandler(seoUC, resp, log),
		mediaH.NewMediaHandler(mediaUC, resp, log),
	}
	for _, h := range handlers {
		h.Register(rt)
	}
	rt.Handle("GET /healthz", a.healthz())
	rt.Handle("GET /metrics", a.metrics.Handler())

	a.handler = httpapi.Chain(rt.Mux,
		httpapi.WithServerDefaults,
		httpapi.WithIdentity(tr, cfg.Store.DefaultLanguage),
		httpapi.WithAccessLog(log, a.metrics),
	)
	return a, nil
}

func (a *app) healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			httpapi.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Close releases connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
