package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound/mock"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

func TestTaskFilter(t *testing.T) {
	assert.Equal(t, `conversationSid == "CH123"`, TaskFilter("CH123"))
}

func TestFindTask(t *testing.T) {
	ctx := context.Background()
	p := mock.New()
	deps := TaskLookupDeps{Log: logger.NewNop(), Directory: p}

	idle := p.SeedThread("+15550001111", "+15559990000", "")
	match, err := FindTask(ctx, deps, "WS1", idle)
	require.NoError(t, err)
	assert.False(t, match.Exists)
	assert.Equal(t, TaskFilter(idle), p.LastTaskFilter())

	owned := p.SeedThread("+15550002222", "+15559990000", "")
	taskID := p.AddTask(owned, outbound.DirectionInbound)
	match, err = FindTask(ctx, deps, "WS1", owned)
	require.NoError(t, err)
	assert.True(t, match.Exists)
	assert.Equal(t, taskID, match.TaskID)
	assert.Equal(t, outbound.DirectionInbound, match.Direction)
}

func TestFindTaskMultipleMatchesTakesFirst(t *testing.T) {
	ctx := context.Background()
	p := mock.New()
	owned := p.SeedThread("+15550002222", "+15559990000", "")
	first := p.AddTask(owned, outbound.DirectionOutbound)
	p.AddTask(owned, outbound.DirectionInbound)

	match, err := FindTask(ctx, TaskLookupDeps{Log: logger.NewNop(), Directory: p}, "WS1", owned)
	require.NoError(t, err)
	assert.True(t, match.Exists)
	assert.Equal(t, first, match.TaskID)
	assert.Equal(t, outbound.DirectionOutbound, match.Direction)
}
