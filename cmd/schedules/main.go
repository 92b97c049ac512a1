package main

import (
	"context"

	authrepository "agenda/internal/auth/repository"
	authservice "agenda/internal/auth/service"
	"agenda/internal/events"
	"agenda/internal/schedules/handler"
	"agenda/internal/schedules/repository"
	"agenda/internal/schedules/service"
	"agenda/internal/schedules/validator"
	"agenda/internal/scheduling"
	"agenda/pkg/app"
	"agenda/pkg/config"
	"agenda/pkg/kafka"
	kafka_middleware "agenda/pkg/kafka/middleware"
)

const ServiceName = "schedules"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("SESSION_SECRET is required")
	}
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetKafka()

	cfg.Log.Info("Starting Schedules service")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	scheduleService := initServices(cfg, publisher)

	authService := authservice.NewAuthService(
		authrepository.NewRedisSessionRepository(cfg.Client.Redis),
		authrepository.NewMongoUserRepository(cfg),
		cfg.SessionSecret,
		cfg.Log,
	)
	serverApp.SetApp(handler.NewScheduleHandler(scheduleService, cfg.Log), authService)
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

func initServices(cfg *config.Config, publisher events.Publisher) service.ScheduleService {
	scheduleValidator := validator.NewScheduleValidator(cfg.Log)
	scheduleRepo := repository.NewMongoScheduleRepository(cfg)
	scheduleService := service.NewScheduleService(
		scheduleRepo,
		scheduleValidator,
		scheduling.NewConflictValidatorFromConfig(cfg),
		publisher,
		cfg,
	)

	cfg.Log.Info("Schedules service initialized", "database", cfg.MongoDatabaseName)
	return scheduleService
}
