// Package app owns the process-wide clients so nothing is reached through globals.
package app

import (
	"context"
	"fmt"
	"time"

	"giftkit/config"
	"giftkit/database"
	"giftkit/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// App holds the configuration, logger and every external connection.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Mongo *mongo.Client
	DB    *mongo.Database

	// SessionRedis keeps wizard sessions and submit locks, OTPRedis the auth flows.
	SessionRedis *redis.Client
	OTPRedis     *redis.Client

	QueueOpt asynq.RedisClientOpt
	Queue    *asynq.Client
}

// New connects to Mongo, both Redis databases and the task queue.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	mongoClient, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.Mongo = mongoClient
	a.DB = mongoClient.Database(cfg.DatabaseName)
	logger.Info("Connected to MongoDB", zap.String("database", cfg.DatabaseName))

	if a.SessionRedis, err = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisSessionDB); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: session redis: %w", err)
	}
	if a.OTPRedis, err = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisOTPDB); err != nil {
		a.Close()
		return nil, fmt.Errorf("app: otp redis: %w", err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	a.QueueOpt = asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
	a.Queue = asynq.NewClient(a.QueueOpt)
	return a, nil
}

// Close releases every connection New opened. It is safe on a partly built App.
func (a *App) Close() {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn("Failed to close task queue client", zap.Error(err))
		}
	}
	for _, client := range []*redis.Client{a.SessionRedis, a.OTPRedis} {
		if client != nil {
			if err := client.Close(); err != nil {
				a.Logger.Warn("Failed to close Redis client", zap.Error(err))
			}
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.Logger.Warn("Failed to disconnect MongoDB", zap.Error(err))
		}
	}
}
