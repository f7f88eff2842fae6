package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketry/turnstile/config"
	"github.com/ticketry/turnstile/internal/consumer"
	"github.com/ticketry/turnstile/internal/handler"
	"github.com/ticketry/turnstile/internal/middleware"
	"github.com/ticketry/turnstile/internal/repository"
	"github.com/ticketry/turnstile/internal/service"
	"github.com/ticketry/turnstile/pkg/database"
	"github.com/ticketry/turnstile/pkg/logger"
	"github.com/ticketry/turnstile/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	eventRepo := repository.NewEventRepository(db)
	seatRepo := repository.NewSeatRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Messaging is optional. Without a broker the service still sells
	// tickets, it just stops announcing them.
	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq publisher unavailable")
		} else {
			defer pub.Close()
			publisher = pub
		}

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq consumer unavailable")
		} else {
			defer mqConsumer.Close()
			msgs, err := mqConsumer.Consume()
			if err != nil {
				log.Warn().Err(err).Msg("rabbitmq consume")
			} else {
				consumer.NewEventConsumer(eventRepo, log).Start(msgs)
			}
		}
	}

	inventory := service.NewSeatInventory()
	ledger := service.NewReservationLedger(inventory, log)
	queue := service.NewWaitingQueue(cfg.AdmitCeiling, cfg.AdmissionTTL)

	eventSvc := service.NewEventService(eventRepo, seatRepo, inventory, publisher, log)
	queueSvc := service.NewQueueService(queue, eventRepo, cfg.AvgAdmissionPeriod, log)
	purchaseSvc := service.NewPurchaseService(
		queue, inventory, ledger,
		eventRepo, seatRepo, ticketRepo,
		publisher, cfg.HoldTTL, log,
	)

	// Rebuild in-memory state from durable rows before accepting traffic.
	if err := eventSvc.RestoreAll(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("restore inventory")
	}

	sweeper, err := service.NewSweeper(ledger, queue, publisher, cfg.AdmitBatch, log)
	if err != nil {
		log.Fatal().Err(err).Msg("sweeper")
	}
	if err := sweeper.Start(cfg.SweepInterval, cfg.AdmissionInterval); err != nil {
		log.Fatal().Err(err).Msg("sweeper start")
	}
	defer sweeper.Stop()

	rdb := config.NewRedisClient(cfg.RedisAddr)
	if cfg.RedisAddr != "" && rdb == nil {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis unavailable, rate limiting disabled")
	}
	joinLimiter := middleware.RateLimit(middleware.RateLimitConfig{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
		Prefix: "turnstile:join",
	}, rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "turnstile"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewQueueHandler(queueSvc).RegisterRoutes(e, joinLimiter)
	handler.NewTicketHandler(purchaseSvc, ticketRepo).RegisterRoutes(e)

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("starting server")
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := e.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
