package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
)

// ConnectRedis connects to Redis and pings it.
func ConnectRedis(redisURI string, log *logger.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("connected to Redis", "addr", opt.Addr, "db", opt.DB)
	return client, nil
}
