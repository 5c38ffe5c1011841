package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kennedy-ak/hitech-store/internal/cache"
	"github.com/kennedy-ak/hitech-store/internal/events"
	storehttp "github.com/kennedy-ak/hitech-store/internal/http"
	"github.com/kennedy-ak/hitech-store/internal/payment"
	"github.com/kennedy-ak/hitech-store/internal/repository"
	"github.com/kennedy-ak/hitech-store/internal/service"
	"github.com/kennedy-ak/hitech-store/pkg/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Connected to postgres, schema up to date")

	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr))

	publisher := events.NewKafkaPublisher(cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	gateway := payment.NewClient(payment.Config{
		SecretKey: cfg.PaystackSecretKey,
		BaseURL:   cfg.PaystackBaseURL,
		Currency:  cfg.Currency,
		Timeout:   cfg.GatewayTimeout,
	})

	cartCache := cache.NewRedisCache(redisClient, cache.Options{TTL: cfg.CartCacheTTL})
	cartService := service.NewCartService(repo, repo, cartCache, cfg.Currency, logger)
	checkoutService := service.NewCheckoutService(repo, repo, repo, cartCache, publisher, cfg.Currency, logger)
	paymentService := service.NewPaymentService(repo, gateway, publisher, logger)
	authService := service.NewAuthService(repo, cartService, cfg.SessionTTL, logger)
	addressService := service.NewAddressService(repo, logger)

	router := storehttp.NewRouter(storehttp.RouterDeps{
		Products: storehttp.NewProductHandler(repo, cfg.RequestTimeout),
		Carts:    storehttp.NewCartHandler(cartService, cfg.RequestTimeout),
		Auth:     storehttp.NewAuthHandler(authService, cfg.RequestTimeout),
		Checkout: storehttp.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Payments: storehttp.NewPaymentHandler(paymentService, cfg.BaseURL, cfg.RequestTimeout),
		Addrs:    storehttp.NewAddressHandler(addressService, cfg.RequestTimeout),
		AuthSvc:  authService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Store listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down store...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Store stopped")
}
