package main

import (
	"log"

	"github.com/chaiyot/bay-booking/config"
	"github.com/chaiyot/bay-booking/internal/consumer"
	"github.com/chaiyot/bay-booking/internal/handler"
	"github.com/chaiyot/bay-booking/internal/middleware"
	"github.com/chaiyot/bay-booking/internal/repository"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/chaiyot/bay-booking/pkg/database"
	"github.com/chaiyot/bay-booking/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	processedRepo := repository.NewProcessedMessageRepository(db)

	// Services
	matcher := service.NewCustomerMatcher(customerRepo, cfg.FuzzyNameThreshold)
	allocator := service.NewResourceAllocator(reservationRepo)
	guard := service.NewIngestGuard(processedRepo)

	// RabbitMQ: intake requests in, outcome events out
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect RabbitMQ publisher: %v", err)
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	intakeConsumer := consumer.NewIntakeConsumer(guard, matcher, allocator, publisher)
	intakeConsumer.Start(msgs)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "bay-booking"})
	})

	handler.NewReservationHandler(allocator, matcher).RegisterRoutes(e)
	handler.NewCustomerHandler(matcher).RegisterRoutes(e)
	handler.NewIntakeHandler(guard).RegisterRoutes(e)

	log.Printf("Bay Booking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
