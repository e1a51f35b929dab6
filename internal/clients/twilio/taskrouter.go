package twilio

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type Task struct {
	SID              string `json:"sid"`
	WorkspaceSID     string `json:"workspace_sid,omitempty"`
	WorkflowSID      string `json:"workflow_sid,omitempty"`
	QueueSID         string `json:"task_queue_sid,omitempty"`
	AssignmentStatus string `json:"assignment_status,omitempty"`
	Attributes       string `json:"attributes,omitempty"`
	TaskChannel      string `json:"task_channel_unique_name,omitempty"`
	DateCreated      string `json:"date_created,omitempty"`
}

type Worker struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name,omitempty"`
	Attributes   string `json:"attributes,omitempty"`
	Available    bool   `json:"available,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
}

type ListTasksParams struct {
	// EvaluateTaskAttributes is a TaskRouter expression, e.g.
	// conversationSid == "CH...".
	EvaluateTaskAttributes string
	AssignmentStatus       []string
}

type ListWorkersParams struct {
	FriendlyName string
}

func (c *client) workspaceURL(workspaceSID, resource string) string {
	return c.cfg.TaskRouterBaseURL + "/Workspaces/" + pathEscape(workspaceSID) + "/" + resource
}

func (c *client) ListTasks(ctx context.Context, workspaceSID string, params ListTasksParams) ([]Task, error) {
	if strings.TrimSpace(workspaceSID) == "" {
		return nil, fmt.Errorf("twilio: workspace sid required")
	}
	q := url.Values{}
	q.Set("PageSize", "50")
	if s := strings.TrimSpace(params.EvaluateTaskAttributes); s != "" {
		q.Set("EvaluateTaskAttributes", s)
	}
	if len(params.AssignmentStatus) > 0 {
		q.Set("AssignmentStatus", strings.Join(params.AssignmentStatus, ","))
	}
	return listAll[Task](c, ctx, "tasks.list", c.workspaceURL(workspaceSID, "Tasks")+"?"+q.Encode(), "tasks")
}

func (c *client) ListWorkers(ctx context.Context, workspaceSID string, params ListWorkersParams) ([]Worker, error) {
	if strings.TrimSpace(workspaceSID) == "" {
		return nil, fmt.Errorf("twilio: workspace sid required")
	}
	q := url.Values{}
	q.Set("PageSize", "50")
	if s := strings.TrimSpace(params.FriendlyName); s != "" {
		q.Set("FriendlyName", s)
	}
	return listAll[Worker](c, ctx, "workers.list", c.workspaceURL(workspaceSID, "Workers")+"?"+q.Encode(), "workers")
}
