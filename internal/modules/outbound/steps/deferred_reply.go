package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type DeferredReplyDeps struct {
	Log     *logger.Logger
	Threads outbound.ThreadStore
}

type DeferredReplyInput struct {
	Thread            *outbound.Thread
	To                string
	Body              string
	ContentTemplateID string
	KnownAgent        bool
	WorkerID          string
	WorkerName        string
	ReplyFlowID       string
	Reused            bool
}

// SendAndWait posts the first message and leaves task creation to the reply
// flow. A reused thread already carries the reply webhook.
func SendAndWait(ctx context.Context, deps DeferredReplyDeps, in DeferredReplyInput) (string, error) {
	if in.Thread == nil || in.Thread.ID == "" {
		return "", fmt.Errorf("send and wait: missing thread")
	}
	threadID := in.Thread.ID

	if in.KnownAgent {
		// Overwrites the whole attribute bag.
		attrs := outbound.ThreadAttributes{KnownAgentRoutingFlag: true, KnownAgentWorkerSid: in.WorkerID}
		if err := deps.Threads.UpdateAttributes(ctx, threadID, attrs); err != nil {
			return "", fmt.Errorf("tag known agent: %w", err)
		}
	}

	if !in.Reused {
		hook := outbound.Webhook{Target: outbound.WebhookTargetStudio, FlowID: in.ReplyFlowID}
		if err := deps.Threads.AttachWebhook(ctx, threadID, hook); err != nil {
			return "", fmt.Errorf("attach reply webhook: %w", err)
		}
	}

	msg := outbound.BuildMessage(outbound.ChannelFor(in.To), in.WorkerName, in.Body, in.ContentTemplateID)
	if err := deps.Threads.PostMessage(ctx, threadID, msg); err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	if deps.Log != nil {
		deps.Log.Info("Outbound message sent, awaiting reply",
			"thread_sid", threadID,
			"reused", in.Reused,
			"known_agent", in.KnownAgent,
		)
	}
	return threadID, nil
}
