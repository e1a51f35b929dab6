package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/envutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Sink() string
	Close() error
}

const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkAMQP  = "amqp"
)

type Config struct {
	Sink         string
	RedisAddr    string
	RedisChannel string
	AMQPURL      string
	AMQPExchange string
	AMQPRouting  string
}

func ConfigFromEnv() Config {
	return Config{
		Sink:         strings.ToLower(envutil.String("EVENTS_SINK", SinkNone)),
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", "outbound.activity"),
		AMQPURL:      envutil.String("AMQP_URL", ""),
		AMQPExchange: envutil.String("AMQP_EXCHANGE", "outbound.events"),
		AMQPRouting:  envutil.String("AMQP_ROUTING_KEY", "outbound.activity"),
	}
}

// New connects the configured sink.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", SinkNone:
		return Nop{}, nil
	case SinkRedis:
		return DialRedis(ctx, log, cfg.RedisAddr, cfg.RedisChannel)
	case SinkAMQP:
		return DialAMQP(ctx, log, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRouting)
	default:
		return nil, fmt.Errorf("unknown EVENTS_SINK %q", cfg.Sink)
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }
func (Nop) Sink() string                            { return SinkNone }
func (Nop) Close() error                            { return nil }
