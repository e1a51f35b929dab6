package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

func startTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

func TestRedisPublisherPublishesEnvelope(t *testing.T) {
	mr := startTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, "outbound.activity")
	defer ps.Close()
	_, err := ps.Receive(ctx)
	require.NoError(t, err)

	pub, err := DialRedis(ctx, logger.NewNop(), mr.Addr(), "outbound.activity")
	require.NoError(t, err)
	defer pub.Close()
	assert.Equal(t, SinkRedis, pub.Sink())

	reqCtx := ctxutil.WithTraceData(ctx, &ctxutil.TraceData{RequestID: "req-1"})
	env := NewEnvelope(reqCtx, TypeOutboundActivity, OutboundActivity{Mode: "deferred", Outcome: "success", ThreadID: "CH1"})
	require.NoError(t, pub.Publish(ctx, env))

	msg, err := ps.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got struct {
		Meta Meta             `json:"meta"`
		Data OutboundActivity `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, env.Meta.ID, got.Meta.ID)
	assert.Equal(t, "req-1", got.Meta.CorrelationID)
	assert.Equal(t, TypeOutboundActivity, got.Meta.Type)
	assert.Equal(t, "CH1", got.Data.ThreadID)
}

func TestDialRedisRequiresAddr(t *testing.T) {
	_, err := DialRedis(context.Background(), logger.NewNop(), "", "x")
	assert.Error(t, err)
}

func TestNewSelectsSink(t *testing.T) {
	pub, err := New(context.Background(), logger.NewNop(), Config{Sink: ""})
	require.NoError(t, err)
	assert.Equal(t, SinkNone, pub.Sink())

	_, err = New(context.Background(), logger.NewNop(), Config{Sink: "kafka"})
	assert.Error(t, err)

	_, err = New(context.Background(), logger.NewNop(), Config{Sink: SinkAMQP})
	assert.Error(t, err)
}

func TestNewEnvelopeFallsBackToOwnID(t *testing.T) {
	env := NewEnvelope(context.Background(), TypeOutboundActivity, nil)
	assert.NotEmpty(t, env.Meta.ID)
	assert.Equal(t, env.Meta.ID, env.Meta.CorrelationID)
	assert.Equal(t, Producer, env.Meta.Producer)
}
