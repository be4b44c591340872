package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/RohitVelivela/vijaybrothers/internal/cart/cache"
	"github.com/RohitVelivela/vijaybrothers/internal/cart/consumer"
	"github.com/RohitVelivela/vijaybrothers/internal/cart/repository"
	"github.com/RohitVelivela/vijaybrothers/internal/cart/service"
	"github.com/RohitVelivela/vijaybrothers/internal/catalog"
	"github.com/RohitVelivela/vijaybrothers/internal/config"
	h "github.com/RohitVelivela/vijaybrothers/internal/http"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/orders/publisher"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
	"github.com/RohitVelivela/vijaybrothers/internal/payment/gateway"
	"github.com/RohitVelivela/vijaybrothers/internal/platform/postgres"
	"github.com/RohitVelivela/vijaybrothers/internal/shipping"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAPI()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres: catalog, shipping settings, orders, payments, outbox
	db, err := postgres.Open(&postgres.Credentials{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.RunMigrations(db); err != nil {
		return err
	}
	log.Info("connected to postgres", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))

	// Mongo: carts
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	cartRepo := repository.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		return err
	}
	log.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	cartCache := cache.NewRedisCache(redisClient)

	products := catalog.NewRepository(db)
	carts := service.NewCartService(cartRepo, cartCache, products)
	estimator := shipping.NewEstimator(shipping.NewSettingsRepository(db), products)
	orderRepo := orders.NewRepository(db)
	orderService := orders.NewService(orderRepo, products, estimator)
	razorpay := gateway.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.GatewayTimeout, log)
	paymentService := payment.NewService(razorpay, payment.NewRepository(db), orderRepo)

	poller := publisher.NewOutboxPoller(orderRepo, publisher.NewWriter(cfg.OrderTopic, cfg.KafkaBrokers...), log)
	defer poller.Close()
	cleaner := consumer.New(consumer.NewReader(cfg.OrderTopic, cfg.KafkaBrokers...), carts, log)
	defer cleaner.Close()

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout, MaxRequestBodySize: cfg.MaxRequestBodySize},
		h.Handlers{
			Cart:     h.NewCartHandler(carts),
			Shipping: h.NewShippingHandler(estimator),
			Orders:   h.NewOrdersHandler(orderService),
			Payments: h.NewPaymentHandler(paymentService),
		},
		log,
	)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	opsLis, err := net.Listen("tcp", ":"+cfg.OpsPort)
	if err != nil {
		return fmt.Errorf("failed to listen on ops port: %w", err)
	}
	opsServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(opsServer, healthServer)
	reflection.Register(opsServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cleaner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("storefront api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("ops server listening", zap.String("addr", opsLis.Addr().String()))
		if err := opsServer.Serve(opsLis); err != nil {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server forced to shutdown", zap.Error(err))
		}
		opsServer.GracefulStop()
		return nil
	})

	err = g.Wait()
	log.Info("storefront api stopped")
	return err
}
