package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

const defaultCustomerName = "Customer"

type ImmediateTaskDeps struct {
	Log          *logger.Logger
	Threads      outbound.ThreadStore
	Interactions outbound.InteractionService
}

type ImmediateTaskInput struct {
	Thread            *outbound.Thread
	To                string
	From              string
	Body              string
	ContentTemplateID string
	WorkerName        string
	Targets           outbound.RoutingTargets
}

type ImmediateTaskOutput struct {
	InteractionID string
	ThreadID      string
}

// OpenImmediate opens a routed task against in.Thread and posts the first
// message into whichever thread the platform reports back.
func OpenImmediate(ctx context.Context, deps ImmediateTaskDeps, in ImmediateTaskInput) (ImmediateTaskOutput, error) {
	if in.Thread == nil || in.Thread.ID == "" {
		return ImmediateTaskOutput{}, fmt.Errorf("open immediate: missing thread")
	}
	channel := outbound.ChannelFor(in.To)

	interaction, err := deps.Interactions.CreateInteraction(ctx, outbound.InteractionRequest{
		ChannelType:           channel,
		InitiatedBy:           outbound.InitiatedByAgent,
		MediaThreadID:         in.Thread.ID,
		Targets:               in.Targets,
		TaskChannelUniqueName: outbound.TaskChannelChat,
		Attributes: outbound.TaskAttributes{
			Direction:       outbound.DirectionOutbound,
			From:            in.To,
			CustomerName:    defaultCustomerName,
			CustomerAddress: in.To,
			TwilioNumber:    in.From,
			ChannelType:     channel,
		},
	})
	if err != nil {
		return ImmediateTaskOutput{}, err
	}

	threadID := interaction.ThreadID
	if threadID == "" {
		observability.ReportDataQuality(ctx, deps.Log, "immediate_task", observability.IssueMissingThreadID, map[string]any{
			"interaction_sid": interaction.ID,
			"thread_sid":      in.Thread.ID,
		})
		threadID = in.Thread.ID
	}

	msg := outbound.BuildMessage(channel, in.WorkerName, in.Body, in.ContentTemplateID)
	if err := deps.Threads.PostMessage(ctx, threadID, msg); err != nil {
		return ImmediateTaskOutput{}, fmt.Errorf("post message: %w", err)
	}
	if deps.Log != nil {
		deps.Log.Info("Outbound task opened",
			"interaction_sid", interaction.ID,
			"thread_sid", threadID,
			"channel", string(channel),
			"templated", msg.ContentTemplateID != "",
		)
	}
	return ImmediateTaskOutput{InteractionID: interaction.ID, ThreadID: threadID}, nil
}
