package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyflights/flightbooking/internal/bootstrap"
	"github.com/happyflights/flightbooking/internal/email"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/worker"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := bootstrap.LoadConfig("worker", os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.L.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []worker.Option

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()
		opts = append(opts, worker.WithNotifications(consumer, email.NewSender(cfg.Email)))
	} else {
		logger.L.Warn("kafka disabled, notifications will not be delivered")
	}

	if interval := cfg.Worker.BackfillInterval(); interval > 0 {
		storage, err := bootstrap.OpenStorage(ctx, cfg.Database)
		if err != nil {
			logger.L.Fatal("open storage", zap.Error(err))
		}
		defer storage.Close()
		services := bootstrap.NewServices(storage, nil, nil)
		opts = append(opts, worker.WithBackfill(services.Bookings, interval))
	}

	logger.L.Info("worker started")
	worker.New(opts...).Run(ctx)
	logger.L.Info("worker stopped")
}
