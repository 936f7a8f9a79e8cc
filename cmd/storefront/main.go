package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/digital-storefront/internal/auth"
	"github.com/joao-fontenele/digital-storefront/internal/cart"
	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/checkout"
	"github.com/joao-fontenele/digital-storefront/internal/config"
	"github.com/joao-fontenele/digital-storefront/internal/messaging"
	"github.com/joao-fontenele/digital-storefront/internal/orders"
	"github.com/joao-fontenele/digital-storefront/internal/payments"
	"github.com/joao-fontenele/digital-storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "REDIS_ADDR", "AUTH_JWT_SECRET"); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var opts []checkout.Option
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicCheckoutCompleted)
		defer func() { _ = producer.Close() }()
		opts = append(opts, checkout.WithPublisher(producer))
	} else {
		logger.Warn("KAFKA_BROKERS not set, checkout events are disabled")
	}

	checkoutMetrics, err := checkout.NewMetrics(otel.Meter("storefront/checkout"))
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}
	opts = append(opts, checkout.WithMetrics(checkoutMetrics))

	catalogRepo := catalog.NewCatalogRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	paymentRepo := payments.NewPaymentRepository(db)
	paymentService := payments.NewService(paymentRepo)
	sessions := cart.NewSessionStore(rdb, cfg.CartTTL)
	loader := catalog.NewLoader(catalogRepo, logger)

	orchestrator := checkout.NewOrchestrator(auth.ContextSource{}, orderRepo, paymentService, logger, opts...)

	catalogHandler := catalog.NewHandler(catalogRepo, loader, logger)
	cartHandler := cart.NewHandler(sessions, catalogRepo, logger)
	checkoutHandler := checkout.NewHandler(orchestrator, sessions, loader, logger)
	ordersHandler := orders.NewHandler(orders.NewViewer(orderRepo, logger), orderRepo, paymentRepo, loader, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleListProducts))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleGetProduct))
	mux.HandleFunc("GET /categories", telemetry.WithHTTPRoute(catalogHandler.HandleListCategories))
	mux.HandleFunc("GET /payment-methods", telemetry.WithHTTPRoute(catalogHandler.HandlePaymentOptions))
	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(cartHandler.HandleAddItem))
	mux.HandleFunc("DELETE /cart/items/{id}", telemetry.WithHTTPRoute(cartHandler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(cartHandler.HandleClear))
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleSubmit))
	mux.HandleFunc("GET /checkout/{id}/confirmation", telemetry.WithHTTPRoute(ordersHandler.HandleConfirmation))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(ordersHandler.HandleList))
	mux.Handle("GET /metrics", metricsHandler)

	verifier := auth.NewTokenVerifier([]byte(cfg.AuthJWTSecret), cfg.AuthIssuer)
	stack := chi.Chain(
		middleware.RequestID,
		middleware.Recoverer,
		auth.Middleware(verifier, logger),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewHTTPHandler(stack.Handler(mux), "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
