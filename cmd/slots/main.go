package main

import (
	"context"

	authrepository "agenda/internal/auth/repository"
	authservice "agenda/internal/auth/service"
	"agenda/internal/events"
	schedulesrepository "agenda/internal/schedules/repository"
	"agenda/internal/scheduling"
	"agenda/internal/slots/handler"
	"agenda/internal/slots/repository"
	"agenda/internal/slots/service"
	"agenda/internal/slots/validator"
	"agenda/pkg/app"
	"agenda/pkg/config"
	"agenda/pkg/kafka"
	kafka_middleware "agenda/pkg/kafka/middleware"
)

const ServiceName = "slots"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("SESSION_SECRET is required")
	}
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetKafka()

	cfg.Log.Info("Starting Slots service")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	slotService := initServices(cfg, publisher)

	authService := authservice.NewAuthService(
		authrepository.NewRedisSessionRepository(cfg.Client.Redis),
		authrepository.NewMongoUserRepository(cfg),
		cfg.SessionSecret,
		cfg.Log,
	)
	serverApp.SetApp(handler.NewSlotHandler(slotService, cfg.Log), authService)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Log, cfg.EventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.Logging(cfg.Log, "publish"))
	producer.Use(metrics.Middleware())

	serverApp.Health().AddInfo("events", func() any { return metrics.Snapshot() })
	serverApp.OnShutdown(func(context.Context) {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	return events.NewKafkaPublisher(producer, ServiceName)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.SlotService {
	slotService := service.NewSlotService(
		repository.NewMongoSlotRepository(cfg),
		schedulesrepository.NewMongoScheduleRepository(cfg),
		validator.NewSlotValidator(cfg.Log),
		scheduling.NewConflictValidatorFromConfig(cfg),
		publisher,
		cfg,
	)

	cfg.Log.Info("Slots service initialized",
		"database", cfg.MongoDatabaseName,
		"max_bulk_slots", cfg.MaxBulkSlots,
		"bulk_insert_concurrency", cfg.BulkInsertConcurrency,
	)
	return slotService
}
