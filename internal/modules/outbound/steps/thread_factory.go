package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type ThreadFactoryDeps struct {
	Log     *logger.Logger
	Threads outbound.ThreadStore
}

// CreateOrDetect creates a thread and binds the customer to it. When the
// platform reports the pair is already bound elsewhere, the new thread is
// discarded and the existing thread id is returned instead. An unreadable
// conflict yields an empty resolution.
func CreateOrDetect(ctx context.Context, deps ThreadFactoryDeps, customerAddress, sendingAddress string) (outbound.ThreadResolution, error) {
	thread, err := deps.Threads.CreateThread(ctx)
	if err != nil {
		return outbound.ThreadResolution{}, fmt.Errorf("create thread: %w", err)
	}

	_, err = deps.Threads.AddBinding(ctx, thread.ID, outbound.Binding{
		Address:      customerAddress,
		ProxyAddress: sendingAddress,
	})
	if err == nil {
		return outbound.ThreadResolution{NewThread: thread}, nil
	}

	// The empty thread has no participant and must not outlive this call.
	discard(ctx, deps, thread.ID)

	var conflict *outbound.BindingConflictError
	if !errors.As(err, &conflict) {
		return outbound.ThreadResolution{}, err
	}
	if conflict.ExistingThreadID == "" {
		observability.ReportDataQuality(ctx, deps.Log, "thread_factory", observability.IssueConflictUnparseable, map[string]any{
			"discarded_thread_sid": thread.ID,
			"error":                err.Error(),
		})
		return outbound.ThreadResolution{}, nil
	}
	if deps.Log != nil {
		deps.Log.Info("Binding conflict detected",
			"discarded_thread_sid", thread.ID,
			"existing_thread_sid", conflict.ExistingThreadID,
		)
	}
	return outbound.ThreadResolution{ConflictingThreadID: conflict.ExistingThreadID}, nil
}

func discard(ctx context.Context, deps ThreadFactoryDeps, threadID string) {
	if err := deps.Threads.DeleteThread(ctx, threadID); err != nil && deps.Log != nil {
		deps.Log.Warn("Failed to delete unbound thread", "thread_sid", threadID, "error", err)
	}
}
