package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound/mock"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

func classifyDeps(p *mock.Platform) ClassifyDeps {
	return ClassifyDeps{Log: logger.NewNop(), Threads: p, Directory: p}
}

func TestClassifyReusableWithoutTask(t *testing.T) {
	p := mock.New()
	existing := p.SeedThread(customer, sender, "")

	v, err := Classify(context.Background(), classifyDeps(p), "WS1", existing)
	require.NoError(t, err)
	assert.True(t, v.Reusable)
	assert.Equal(t, existing, v.ExistingThreadID)
	require.NotNil(t, v.ExistingThread)
	assert.Equal(t, existing, v.ExistingThread.ID)
	assert.Empty(t, v.TaskDirection)
}

func TestClassifyBlockedEchoesDirection(t *testing.T) {
	for _, dir := range []outbound.Direction{outbound.DirectionInbound, outbound.DirectionOutbound, "transfer"} {
		t.Run(string(dir), func(t *testing.T) {
			p := mock.New()
			p.AddWorker(outbound.Worker{FriendlyName: "jane.doe", FullName: "Jane Doe"})
			existing := p.SeedThread(customer, sender, "jane_2Edoe")
			p.AddTask(existing, dir)

			v, err := Classify(context.Background(), classifyDeps(p), "WS1", existing)
			require.NoError(t, err)
			assert.False(t, v.Reusable)
			assert.Equal(t, dir, v.TaskDirection)
			assert.Equal(t, "Jane Doe", v.AgentName)
		})
	}
}

func TestClassifyFetchFailure(t *testing.T) {
	p := mock.New()
	_, err := Classify(context.Background(), classifyDeps(p), "WS1", "CHmissing")
	assert.ErrorIs(t, err, mock.ErrNotFound)
}

func TestClassifyTaskLookupFailure(t *testing.T) {
	p := mock.New()
	existing := p.SeedThread(customer, sender, "")
	boom := errors.New("taskrouter down")
	p.Fail(mock.OpListTasks, boom)

	_, err := Classify(context.Background(), classifyDeps(p), "WS1", existing)
	assert.ErrorIs(t, err, boom)
}
