package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type redisPublisher struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// DialRedis connects to addr and verifies it with a ping.
func DialRedis(ctx context.Context, log *logger.Logger, addr, channel string) (Publisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisPublisher(log, rdb, channel), nil
}

func NewRedisPublisher(log *logger.Logger, rdb *redis.Client, channel string) Publisher {
	if strings.TrimSpace(channel) == "" {
		channel = "outbound.activity"
	}
	return &redisPublisher{
		log:     log.With("service", "RedisEventPublisher"),
		rdb:     rdb,
		channel: channel,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

func (p *redisPublisher) Sink() string { return SinkRedis }

func (p *redisPublisher) Close() error { return p.rdb.Close() }
