package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

// Platform adapts the REST client to the outbound ports. Attribute bags are
// decoded into typed structs here and nowhere else.
type Platform struct {
	log    *logger.Logger
	client Client
}

var _ outbound.Platform = (*Platform)(nil)

func NewPlatform(log *logger.Logger, client Client) *Platform {
	return &Platform{log: log.With("adapter", "TwilioPlatform"), client: client}
}

func (p *Platform) CreateThread(ctx context.Context) (*outbound.Thread, error) {
	conv, err := p.client.CreateConversation(ctx, CreateConversationParams{})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return p.toThread(conv), nil
}

func (p *Platform) DeleteThread(ctx context.Context, threadID string) error {
	if err := p.client.DeleteConversation(ctx, threadID); err != nil {
		return fmt.Errorf("delete conversation %s: %w", threadID, err)
	}
	return nil
}

func (p *Platform) FetchThread(ctx context.Context, threadID string) (*outbound.Thread, error) {
	conv, err := p.client.FetchConversation(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation %s: %w", threadID, err)
	}
	return p.toThread(conv), nil
}

func (p *Platform) ListParticipants(ctx context.Context, threadID string) ([]outbound.Participant, error) {
	parts, err := p.client.ListParticipants(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list participants %s: %w", threadID, err)
	}
	out := make([]outbound.Participant, 0, len(parts))
	for _, part := range parts {
		out = append(out, toParticipant(part))
	}
	return out, nil
}

func (p *Platform) AddBinding(ctx context.Context, threadID string, binding outbound.Binding) (*outbound.Participant, error) {
	part, err := p.client.CreateParticipant(ctx, threadID, CreateParticipantParams{
		Address:      binding.Address,
		ProxyAddress: binding.ProxyAddress,
	})
	if err != nil {
		if existing, ok := TranslateConflict(err); ok {
			return nil, &outbound.BindingConflictError{ExistingThreadID: existing, Err: err}
		}
		return nil, fmt.Errorf("add binding to %s: %w", threadID, err)
	}
	out := toParticipant(*part)
	return &out, nil
}

func (p *Platform) UpdateAttributes(ctx context.Context, threadID string, attrs outbound.ThreadAttributes) error {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode thread attributes: %w", err)
	}
	if _, err := p.client.UpdateConversation(ctx, threadID, UpdateConversationParams{Attributes: string(raw)}); err != nil {
		return fmt.Errorf("update conversation %s attributes: %w", threadID, err)
	}
	return nil
}

func (p *Platform) AttachWebhook(ctx context.Context, threadID string, hook outbound.Webhook) error {
	if _, err := p.client.CreateWebhook(ctx, threadID, CreateWebhookParams{
		Target:  hook.Target,
		FlowSID: hook.FlowID,
	}); err != nil {
		return fmt.Errorf("attach webhook to %s: %w", threadID, err)
	}
	return nil
}

func (p *Platform) PostMessage(ctx context.Context, threadID string, msg outbound.Message) error {
	if _, err := p.client.CreateMessage(ctx, threadID, CreateMessageParams{
		Author:     msg.Author,
		Body:       msg.Body,
		ContentSID: msg.ContentTemplateID,
	}); err != nil {
		return fmt.Errorf("post message to %s: %w", threadID, err)
	}
	return nil
}

func (p *Platform) ListTasks(ctx context.Context, workspaceID, filter string) ([]outbound.RoutingTask, error) {
	tasks, err := p.client.ListTasks(ctx, workspaceID, ListTasksParams{EvaluateTaskAttributes: filter})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]outbound.RoutingTask, 0, len(tasks))
	for _, t := range tasks {
		task := outbound.RoutingTask{ID: t.SID, AssignmentStatus: t.AssignmentStatus}
		if err := decodeAttributes(t.Attributes, &task.Attributes); err != nil {
			p.log.Warn("Unreadable task attributes", "task_sid", t.SID, "error", err)
		}
		out = append(out, task)
	}
	return out, nil
}

type workerAttributes struct {
	FullName string `json:"full_name"`
}

func (p *Platform) ListWorkers(ctx context.Context, workspaceID, friendlyName string) ([]outbound.Worker, error) {
	workers, err := p.client.ListWorkers(ctx, workspaceID, ListWorkersParams{FriendlyName: friendlyName})
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	out := make([]outbound.Worker, 0, len(workers))
	for _, w := range workers {
		var attrs workerAttributes
		if err := decodeAttributes(w.Attributes, &attrs); err != nil {
			p.log.Warn("Unreadable worker attributes", "worker_sid", w.SID, "error", err)
		}
		out = append(out, outbound.Worker{ID: w.SID, FriendlyName: w.FriendlyName, FullName: attrs.FullName})
	}
	return out, nil
}

func (p *Platform) CreateInteraction(ctx context.Context, req outbound.InteractionRequest) (*outbound.Interaction, error) {
	props := map[string]any{
		"task_channel_unique_name": req.TaskChannelUniqueName,
		"attributes":               req.Attributes,
	}
	setIf(props, "workspace_sid", req.Targets.WorkspaceID)
	setIf(props, "workflow_sid", req.Targets.WorkflowID)
	setIf(props, "queue_sid", req.Targets.QueueID)
	setIf(props, "worker_sid", req.Targets.WorkerID)

	interaction, err := p.client.CreateInteraction(ctx, CreateInteractionParams{
		Channel: InteractionChannel{
			Type:        string(req.ChannelType),
			InitiatedBy: req.InitiatedBy,
			Properties:  &InteractionChannelProps{MediaChannelSID: req.MediaThreadID},
		},
		Routing: InteractionRouting{Properties: props},
	})
	if err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}

	out := &outbound.Interaction{ID: interaction.SID}
	raw, err := interaction.RoutingAttributes()
	if err != nil {
		p.log.Warn("Interaction without routing attributes", "interaction_sid", interaction.SID, "error", err)
		return out, nil
	}
	var attrs outbound.TaskAttributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		p.log.Warn("Unreadable interaction routing attributes", "interaction_sid", interaction.SID, "error", err)
		return out, nil
	}
	out.ThreadID = attrs.ConversationSid
	return out, nil
}

func (p *Platform) toThread(conv *Conversation) *outbound.Thread {
	if conv == nil {
		return nil
	}
	t := &outbound.Thread{ID: conv.SID, FriendlyName: conv.FriendlyName, State: conv.State}
	if err := decodeAttributes(conv.Attributes, &t.Attributes); err != nil {
		p.log.Warn("Unreadable conversation attributes", "conversation_sid", conv.SID, "error", err)
	}
	return t
}

func toParticipant(part Participant) outbound.Participant {
	out := outbound.Participant{ID: part.SID, Identity: part.Identity}
	if part.MessagingBinding != nil {
		out.Binding = &outbound.Binding{
			Address:      part.MessagingBinding.Address,
			ProxyAddress: part.MessagingBinding.ProxyAddress,
		}
	}
	return out
}

func decodeAttributes(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func setIf(m map[string]any, key, val string) {
	if v := strings.TrimSpace(val); v != "" {
		m[key] = v
	}
}
