package client

import (
	"context"
	"sync"
	"time"

	"agenda/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client holds the shared backing-store connections of a service. Each field
// stays nil until its setter runs.
type Client struct {
	Mongo  *mongo.Client
	Redis  *redis.Client
	Rabbit *amqp091.Connection
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int, dialTimeout time.Duration) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", "error", err, "addr", addr)
	}

	log.Info("Successfully connected to Redis", "addr", addr, "db", db)
	c.Redis = rdb
}

func (c *Client) SetRabbitMQ(log *logger.Logger, url string) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", "error", err)
	}

	log.Info("Successfully connected to RabbitMQ")
	c.Rabbit = conn
}

// GracefulShutdown closes every open connection in parallel and gives up
// waiting once timeout elapses.
func (c *Client) GracefulShutdown(log *logger.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup

	if c.Mongo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Mongo.Disconnect(ctx); err != nil {
				log.Error("Failed to disconnect MongoDB", "error", err)
				return
			}
			log.Info("MongoDB connection closed")
		}()
	}

	if c.Redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Redis.Close(); err != nil {
				log.Error("Failed to close Redis client", "error", err)
				return
			}
			log.Info("Redis connection closed")
		}()
	}

	if c.Rabbit != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Rabbit.Close(); err != nil && err != amqp091.ErrClosed {
				log.Error("Failed to close RabbitMQ connection", "error", err)
				return
			}
			log.Info("RabbitMQ connection closed")
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Timed out closing client connections", "timeout", timeout)
	}
}
