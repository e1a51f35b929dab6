package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type TaskLookupDeps struct {
	Log       *logger.Logger
	Directory outbound.RoutingDirectory
}

type TaskMatch struct {
	Exists    bool
	TaskID    string
	Direction outbound.Direction
}

// TaskFilter is the routing expression selecting tasks bound to threadID.
func TaskFilter(threadID string) string {
	escaped := strings.ReplaceAll(threadID, `"`, `\"`)
	return fmt.Sprintf(`conversationSid == "%s"`, escaped)
}

// FindTask reports whether a routing task references threadID. Absence is
// not an error.
func FindTask(ctx context.Context, deps TaskLookupDeps, workspaceID, threadID string) (TaskMatch, error) {
	tasks, err := deps.Directory.ListTasks(ctx, workspaceID, TaskFilter(threadID))
	if err != nil {
		return TaskMatch{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return TaskMatch{}, nil
	}
	if len(tasks) > 1 {
		ids := make([]string, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
		observability.ReportDataQuality(ctx, deps.Log, "task_lookup", observability.IssueMultipleTasks, map[string]any{
			"thread_sid": threadID,
			"task_sids":  ids,
		})
	}
	first := tasks[0]
	return TaskMatch{Exists: true, TaskID: first.ID, Direction: first.Attributes.Direction}, nil
}
