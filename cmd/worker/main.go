package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/gulfair/config"
	"github.com/Domenick1991/gulfair/internal/cache"
	"github.com/Domenick1991/gulfair/internal/email"
	"github.com/Domenick1991/gulfair/internal/kafka"
	"github.com/Domenick1991/gulfair/internal/logging"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/Domenick1991/gulfair/internal/service/flights"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logging.New(config.Default().Log, os.Stderr).WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log, os.Stdout).WithField("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()

	flightService := flights.NewFlightService(repository.NewFlightRepository(repository.NewDB(pool)), redisCache, log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
	defer consumer.Close()

	sender := email.NewSender(log)

	go func() {
		if err := consumer.Consume(ctx, kafka.BookingEventHandler(log, sender.Send)); err != nil {
			log.WithError(err).Error("consumer stopped")
			stop()
		}
	}()

	sweep := time.Duration(cfg.Worker.StatusSweepMinutes) * time.Minute
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	log.WithField("topic", cfg.Kafka.NotificationsTopic).Info("worker started")
	for {
		select {
		case <-ticker.C:
			n, err := flightService.CompleteArrived(ctx, time.Now())
			if err != nil {
				log.WithError(err).Error("complete arrived flights")
				continue
			}
			if n > 0 {
				log.WithField("flights", n).Info("flights marked completed")
			}
		case <-ctx.Done():
			log.Info("shutting down")
			return
		}
	}
}
