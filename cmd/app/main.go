package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyflights/flightbooking/internal/auth"
	"github.com/happyflights/flightbooking/internal/bootstrap"
	"github.com/happyflights/flightbooking/internal/cache"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := bootstrap.LoadConfig("app", os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.L.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database)
	if err != nil {
		logger.L.Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	health := map[string]bootstrap.HealthCheck{"database": storage.Ping}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(cache.NewRedisClient(cfg.Redis), cfg.Booking)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.L.Warn("redis unreachable, continuing without a warm cache", zap.Error(err))
		}
		health["redis"] = redisCache.Ping
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.L.Warn("kafka unreachable, notifications may be lost", zap.Error(err))
		}
	}

	services := bootstrap.NewServices(storage, redisCache, producer)
	deps := bootstrap.Dependencies{
		Flights:  services.Flights,
		Bookings: services.Bookings,
		Cities:   services.Cities,
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret),
		Health:   health,
	}
	if redisCache != nil {
		deps.Idempotency = redisCache
	}

	if err := bootstrap.Run(ctx, cfg.HTTP, cfg.GRPC, deps); err != nil {
		logger.L.Fatal("server error", zap.Error(err))
	}
}
