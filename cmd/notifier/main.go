package main

import (
	"context"

	authrepository "agenda/internal/auth/repository"
	authservice "agenda/internal/auth/service"
	"agenda/internal/notifications/handler"
	"agenda/internal/notifications/mailer"
	"agenda/internal/notifications/repository"
	"agenda/internal/notifications/service"
	"agenda/pkg/app"
	"agenda/pkg/config"
	"agenda/pkg/kafka"
	kafka_middleware "agenda/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("SESSION_SECRET is required")
	}
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetRabbitMQ()
	cfg.SetKafka()

	cfg.Log.Info("Starting Notifier service")
	serverApp := app.NewApplication(cfg)

	rabbitMailer, err := mailer.NewRabbitMailer(cfg.Client.Rabbit, cfg.EmailQueue)
	if err != nil {
		cfg.Log.Fatal("Failed to set up email queue", "error", err)
	}
	serverApp.OnShutdown(func(context.Context) {
		if err := rabbitMailer.Close(); err != nil {
			cfg.Log.Error("Failed to close RabbitMQ channel", "error", err)
		}
	})

	notificationService := service.NewNotificationService(
		repository.NewMongoNotificationRepository(cfg),
		rabbitMailer,
		cfg,
	)
	startConsumer(cfg, serverApp, notificationService)

	authService := authservice.NewAuthService(
		authrepository.NewRedisSessionRepository(cfg.Client.Redis),
		authrepository.NewMongoUserRepository(cfg),
		cfg.SessionSecret,
		cfg.Log,
	)
	serverApp.SetApp(handler.NewNotificationHandler(notificationService, cfg.Log), authService)
	serverApp.Run()
}

func startConsumer(cfg *config.Config, serverApp *app.Application, svc service.NotificationService) {
	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Log, cfg.EventsTopic, cfg.NotifierGroupID, cfg.EventsDLQTopic, svc.HandleEvent)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.Logging(cfg.Log, "consume"))
	consumer.Use(metrics.Middleware())

	serverApp.Health().AddInfo("consumer", func() any { return metrics.Snapshot() })
	serverApp.AddWorker("events-consumer", consumer.Start)
	serverApp.OnShutdown(func(context.Context) {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	})

	cfg.Log.Info("Notifier consumer configured",
		"topic", cfg.EventsTopic,
		"group_id", cfg.NotifierGroupID,
		"dlq_topic", cfg.EventsDLQTopic,
	)
}
