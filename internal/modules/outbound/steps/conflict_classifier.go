package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type ClassifyDeps struct {
	Log       *logger.Logger
	Threads   outbound.ThreadStore
	Directory outbound.RoutingDirectory
}

// Classify decides whether an already bound thread can be reused. It is
// reusable only while no routing task references it.
func Classify(ctx context.Context, deps ClassifyDeps, workspaceID, threadID string) (outbound.ConflictVerdict, error) {
	verdict := outbound.ConflictVerdict{ExistingThreadID: threadID}

	thread, err := deps.Threads.FetchThread(ctx, threadID)
	if err != nil {
		return verdict, fmt.Errorf("fetch conflicting thread: %w", err)
	}
	verdict.ExistingThread = thread

	idDeps := IdentityDeps{Log: deps.Log, Threads: deps.Threads, Directory: deps.Directory}
	identity, err := ResolveAgentIdentity(ctx, idDeps, threadID)
	if err != nil {
		return verdict, err
	}
	name, err := ResolveAgentName(ctx, idDeps, workspaceID, identity)
	if err != nil {
		return verdict, err
	}
	verdict.AgentName = name

	task, err := FindTask(ctx, TaskLookupDeps{Log: deps.Log, Directory: deps.Directory}, workspaceID, threadID)
	if err != nil {
		return verdict, err
	}
	verdict.Reusable = !task.Exists
	if task.Exists {
		verdict.TaskDirection = task.Direction
	}
	if deps.Log != nil {
		deps.Log.Debug("Conflict classified",
			"thread_sid", threadID,
			"reusable", verdict.Reusable,
			"task_sid", task.TaskID,
			"direction", string(task.Direction),
		)
	}
	return verdict, nil
}
