package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     bool      `json:"mongo"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor periodically pings Mongo and Redis and keeps the latest snapshot.
type HealthMonitor struct {
	redisClients []*redis.Client
	mongoClient  *mongo.Client

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(mongoClient *mongo.Client, redisClients ...*redis.Client) *HealthMonitor {
	return &HealthMonitor{redisClients: redisClients, mongoClient: mongoClient}
}

// Status returns latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Check pings every dependency once and stores the result.
func (h *HealthMonitor) Check(ctx context.Context) HealthStatus {
	var redisHealth []bool
	for _, client := range h.redisClients {
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}
	mongoHealthy := h.mongoClient != nil && h.mongoClient.Ping(ctx, nil) == nil

	status := HealthStatus{Mongo: mongoHealthy, Redis: redisHealth, CheckedAt: time.Now()}
	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
	return status
}

// Start runs Check every interval until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.Check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Check(ctx)
			}
		}
	}()
}

// Healthy reports whether the last snapshot had every dependency up.
func (s HealthStatus) Healthy() bool {
	if !s.Mongo {
		return false
	}
	for _, ok := range s.Redis {
		if !ok {
			return false
		}
	}
	return true
}
