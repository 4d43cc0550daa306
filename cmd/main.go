package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fjod/go_pos/internal/cache"
	"github.com/fjod/go_pos/internal/cartstore"
	"github.com/fjod/go_pos/internal/checkout"
	h "github.com/fjod/go_pos/internal/http"
	"github.com/fjod/go_pos/internal/inventory"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/fjod/go_pos/internal/publisher"
	"github.com/fjod/go_pos/internal/repository"
	"github.com/fjod/go_pos/internal/sales"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort        string
	DB              repository.Credentials
	MigrationsPath  string
	CartStore       string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	KafkaBrokers    []string
	TaxRate         decimal.Decimal
	SettlementDelay time.Duration
	HistoryLimit    int
	SyncTimeout     time.Duration
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() (*Config, error) {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	taxRate, err := decimal.NewFromString(getEnv("TAX_RATE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	settlementDelay, err := time.ParseDuration(getEnv("SETTLEMENT_DELAY", "1500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_DELAY: %w", err)
	}
	syncTimeout, err := time.ParseDuration(getEnv("SYNC_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEOUT: %w", err)
	}
	historyLimit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", strconv.Itoa(sales.DefaultHistoryLimit)))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}

	var brokers []string
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		brokers = strings.Split(v, ",")
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		DB: repository.Credentials{
			Driver:   getEnv("DB_DRIVER", repository.DriverSQLite),
			Path:     getEnv("DB_PATH", "pos.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "pos"),
		},
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),
		CartStore:       getEnv("CART_STORE", "redis"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "posdb"),
		KafkaBrokers:    brokers,
		TaxRate:         taxRate,
		SettlementDelay: settlementDelay,
		HistoryLimit:    historyLimit,
		SyncTimeout:     syncTimeout,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// openCartKV connects the key/value backend for customer carts. The returned
// func releases the connection.
func openCartKV(ctx context.Context, cfg *Config, l *zap.Logger) (cache.KeyValueStore, func(), error) {
	switch cfg.CartStore {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		l.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		return cache.NewRedisStore(redisClient), func() { redisClient.Close() }, nil
	case "mongo":
		db, err := cache.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		l.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))
		return cache.NewMongoStore(db), func() { _ = db.Client().Disconnect(context.Background()) }, nil
	case "memory":
		l.Warn("customer carts are kept in memory and lost on restart")
		return cache.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx := context.Background()

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		l.Fatal("failed to open database", zap.Error(err))
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		l.Fatal("failed to run migrations", zap.Error(err))
	}
	l.Info("database ready", zap.String("driver", cfg.DB.Driver))

	kv, closeKV, err := openCartKV(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to open cart store", zap.Error(err))
	}
	defer closeKV()
	carts := cartstore.New(kv, l.Named("cartstore"))

	catalog := repository.NewItemCatalog(repo)
	customers := repository.NewCustomerDirectory(repo)
	transactions := sales.NewBreakerStore(repository.NewTransactionStore(repo), sales.DefaultBreakerConfig, l)
	items := inventory.NewCache(catalog, l.Named("inventory"))

	deps := pos.Deps{
		CartStore:    carts,
		Transactions: transactions,
		Inventory:    items,
		Settler:      checkout.SimulatedSettler{Delay: cfg.SettlementDelay},
		Sales:        sales.Config{TaxRate: cfg.TaxRate, SyncTimeout: cfg.SyncTimeout},
		HistoryLimit: cfg.HistoryLimit,
	}
	var events *publisher.SalePublisher
	var consumer *publisher.SaleConsumer
	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if len(cfg.KafkaBrokers) > 0 {
		events = publisher.NewSalePublisher(cfg.KafkaBrokers...)
		deps.Events = events
		consumer = publisher.NewSaleConsumer(consumerGroup(), items, l.Named("consumer"), cfg.KafkaBrokers...)
		go consumer.Run(consumeCtx)
		l.Info("publishing sale events", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	registry := pos.NewRegistry(deps, l)

	router := h.NewRouter(h.Handlers{
		Cart:      h.NewCartHandler(registry, items, cfg.RequestTimeout, l),
		Customers: h.NewCustomerHandler(customers, registry.Customers(), cfg.RequestTimeout, l),
		Checkout:  h.NewCheckoutHandler(registry, l),
		History:   h.NewHistoryHandler(registry),
	}, cfg.RequestTimeout, l)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "pos"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("POS server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	if err := registry.Wait(shutdownCtx); err != nil {
		l.Warn("background transaction syncs did not finish", zap.Error(err))
	}
	if err := carts.Close(); err != nil {
		l.Warn("failed to drain cart store", zap.Error(err))
	}
	stopConsumer()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			l.Warn("failed to close sale consumer", zap.Error(err))
		}
	}
	if events != nil {
		if err := events.Close(); err != nil {
			l.Warn("failed to close sale publisher", zap.Error(err))
		}
	}

	l.Info("server exited")
}

// consumerGroup is unique per host so every instance sees every sale.
func consumerGroup() string {
	if g := os.Getenv("KAFKA_GROUP_ID"); g != "" {
		return g
	}
	host, err := os.Hostname()
	if err != nil {
		host = strconv.Itoa(os.Getpid())
	}
	return "pos-inventory-" + host
}
