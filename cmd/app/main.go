package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/gulfair/api"
	"github.com/Domenick1991/gulfair/config"
	"github.com/Domenick1991/gulfair/internal/auth"
	"github.com/Domenick1991/gulfair/internal/bootstrap"
	"github.com/Domenick1991/gulfair/internal/cache"
	"github.com/Domenick1991/gulfair/internal/kafka"
	"github.com/Domenick1991/gulfair/internal/logging"
	"github.com/Domenick1991/gulfair/internal/migrations"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/Domenick1991/gulfair/internal/service/booking"
	"github.com/Domenick1991/gulfair/internal/service/flights"
	"github.com/Domenick1991/gulfair/internal/service/loyalty"
	"github.com/Domenick1991/gulfair/internal/service/users"
	"github.com/gin-gonic/gin"
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
	log := logging.New(cfg.Log, os.Stdout)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	db := repository.NewDB(pool)
	if cfg.Database.MigrateOnBoot {
		if err := migrations.Up(db.DB); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, continuing without cache")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	flightService := flights.NewFlightService(flightRepo, redisCache, log)
	userService := users.NewUserService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, log)
	loyaltyService := loyalty.NewLoyaltyService(loyaltyRepo, userRepo, bookingRepo, log)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		log,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithPublishRetries(cfg.Kafka.PublishRetries),
		booking.WithSeatLockTTL(time.Duration(cfg.Booking.SeatLockSeconds)*time.Second),
		booking.WithCheckInWindow(booking.CheckInWindow{
			Enabled: cfg.Booking.CheckInWindowEnabled,
			Opens:   time.Duration(cfg.Booking.CheckInOpensHours) * time.Hour,
			Closes:  time.Duration(cfg.Booking.CheckInClosesMinutes) * time.Minute,
		}),
	)

	router := bootstrap.NewRouter(cfg.HTTP, log, tokens, bootstrap.Handlers{
		Users:    api.NewUserHandler(userService, log),
		Flights:  api.NewFlightHandler(flightService, log),
		Bookings: api.NewBookingHandler(bookingService, log),
		Loyalty:  api.NewLoyaltyHandler(loyaltyService, log),
	}, map[string]bootstrap.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
