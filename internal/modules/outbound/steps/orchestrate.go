package steps

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type SendDeps struct {
	Log      *logger.Logger
	Platform outbound.Platform
}

// Send drives one outbound request to a terminal state. A blocked send
// returns *outbound.ConflictBlockedError, an unreadable conflict returns
// outbound.ErrConflictUnresolvable, anything else is a platform fault.
func Send(ctx context.Context, deps SendDeps, req outbound.OutboundRequest) (outbound.SendOutcome, error) {
	mode := outbound.ModeDeferred
	if req.OpenImmediately {
		mode = outbound.ModeImmediate
	}
	ctx, span := observability.Tracer().Start(ctx, "outbound.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("outbound.mode", string(mode)),
		attribute.String("outbound.channel", string(req.Channel())),
	)

	outcome, err := send(ctx, deps, req, mode)
	if err != nil {
		if _, blocked := outbound.IsBlocked(err); blocked {
			span.SetAttributes(attribute.Bool("outbound.blocked", true))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return outcome, err
	}
	span.SetAttributes(
		attribute.String("outbound.thread_sid", outcome.ThreadID),
		attribute.Bool("outbound.reused", outcome.Reused),
	)
	return outcome, nil
}

func send(ctx context.Context, deps SendDeps, req outbound.OutboundRequest, mode outbound.Mode) (outbound.SendOutcome, error) {
	outcome := outbound.SendOutcome{Mode: mode}

	res, err := CreateOrDetect(ctx, ThreadFactoryDeps{Log: deps.Log, Threads: deps.Platform}, req.To, req.From)
	if err != nil {
		return outcome, err
	}
	if res.Empty() {
		return outcome, outbound.ErrConflictUnresolvable
	}

	thread := res.NewThread
	if thread == nil {
		verdict, err := Classify(ctx, ClassifyDeps{
			Log:       deps.Log,
			Threads:   deps.Platform,
			Directory: deps.Platform,
		}, req.Targets.WorkspaceID, res.ConflictingThreadID)
		if err != nil {
			return outcome, err
		}
		if !verdict.Reusable {
			outcome.ThreadID = verdict.ExistingThreadID
			return outcome, &outbound.ConflictBlockedError{To: req.To, Verdict: verdict}
		}
		thread = verdict.ExistingThread
		if thread == nil {
			thread, err = deps.Platform.FetchThread(ctx, res.ConflictingThreadID)
			if err != nil {
				return outcome, fmt.Errorf("fetch reused thread: %w", err)
			}
		}
		outcome.Reused = true
	}
	outcome.ThreadID = thread.ID

	if req.OpenImmediately {
		out, err := OpenImmediate(ctx, ImmediateTaskDeps{
			Log:          deps.Log,
			Threads:      deps.Platform,
			Interactions: deps.Platform,
		}, ImmediateTaskInput{
			Thread:            thread,
			To:                req.To,
			From:              req.From,
			Body:              req.Body,
			ContentTemplateID: req.ContentTemplateID,
			WorkerName:        req.Worker.FriendlyName,
			Targets:           req.Targets,
		})
		if err != nil {
			return outcome, err
		}
		outcome.ThreadID = out.ThreadID
		outcome.InteractionID = out.InteractionID
		return outcome, nil
	}

	threadID, err := SendAndWait(ctx, DeferredReplyDeps{Log: deps.Log, Threads: deps.Platform}, DeferredReplyInput{
		Thread:            thread,
		To:                req.To,
		Body:              req.Body,
		ContentTemplateID: req.ContentTemplateID,
		KnownAgent:        req.RouteToSelfOnReply,
		WorkerID:          req.Worker.ID,
		WorkerName:        req.Worker.FriendlyName,
		ReplyFlowID:       req.ReplyFlowID,
		Reused:            outcome.Reused,
	})
	if err != nil {
		return outcome, err
	}
	outcome.ThreadID = threadID
	return outcome, nil
}
