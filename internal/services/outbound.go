package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/events"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

// Outcome labels for metrics and events.
const (
	OutcomeRouted       = "routed"
	OutcomeBlocked      = "blocked"
	OutcomeUnresolvable = "unresolvable"
	OutcomeError        = "error"
)

// SendOutboundInput mirrors the fields the agent panel posts.
type SendOutboundInput struct {
	To                 string
	From               string
	Body               string
	ContentTemplateSID string
	OpenChat           bool
	KnownAgentRouting  bool
	WorkerSID          string
	WorkerFriendlyName string
	WorkspaceSID       string
	WorkflowSID        string
	QueueSID           string
	InboundStudioFlow  string
}

// SendOutboundResult is the produced interface returned to the panel.
type SendOutboundResult struct {
	Success         bool   `json:"success"`
	ConversationSID string `json:"conversationSid,omitempty"`
	InteractionSID  string `json:"interactionSid,omitempty"`
	To              string `json:"to,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// OutboundDefaults fill request fields the caller left empty.
type OutboundDefaults struct {
	From              string
	WorkspaceSID      string
	WorkflowSID       string
	QueueSID          string
	InboundStudioFlow string
}

// OutboundSender runs the orchestrator.
type OutboundSender interface {
	Send(ctx context.Context, req outbound.OutboundRequest) (outbound.SendOutcome, error)
}

type OutboundService interface {
	// Send returns a result for routed and conflict outcomes. Invalid input
	// and platform faults are returned as errors.
	Send(ctx context.Context, in SendOutboundInput) (*SendOutboundResult, error)
}

type outboundService struct {
	log       *logger.Logger
	sender    OutboundSender
	publisher events.Publisher
	defaults  OutboundDefaults
}

func NewOutboundService(log *logger.Logger, sender OutboundSender, publisher events.Publisher, defaults OutboundDefaults) OutboundService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &outboundService{
		log:       log.With("service", "OutboundService"),
		sender:    sender,
		publisher: publisher,
		defaults:  defaults,
	}
}

func (s *outboundService) Send(ctx context.Context, in SendOutboundInput) (*SendOutboundResult, error) {
	req := s.buildRequest(in)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := s.sender.Send(ctx, req)
	mode := string(outcome.Mode)

	activity := events.OutboundActivity{
		Mode:          mode,
		ThreadID:      outcome.ThreadID,
		InteractionID: outcome.InteractionID,
		To:            req.To,
		From:          req.From,
		WorkerSID:     req.Worker.ID,
		WorkerName:    req.Worker.FriendlyName,
		Reused:        outcome.Reused,
	}

	var (
		result *SendOutboundResult
		label  string
	)
	switch blocked, isBlocked := outbound.IsBlocked(err); {
	case err == nil:
		label = OutcomeRouted
		result = &SendOutboundResult{
			Success:         true,
			ConversationSID: outcome.ThreadID,
			InteractionSID:  outcome.InteractionID,
			To:              req.To,
		}
	case isBlocked:
		label = OutcomeBlocked
		activity.TaskDirection = string(blocked.Verdict.TaskDirection)
		activity.AgentName = blocked.Verdict.AgentName
		result = &SendOutboundResult{ErrorMessage: blocked.Error(), To: req.To}
	case errors.Is(err, outbound.ErrConflictUnresolvable):
		label = OutcomeUnresolvable
		result = &SendOutboundResult{ErrorMessage: outbound.UnresolvableMessage(req.To), To: req.To}
	default:
		label = OutcomeError
	}
	activity.Outcome = label
	if result != nil {
		activity.ErrorMessage = result.ErrorMessage
	} else {
		activity.ErrorMessage = err.Error()
	}

	if m := observability.Current(); m != nil {
		m.ObserveOutbound(mode, label, time.Since(start))
	}
	s.publish(ctx, activity)

	switch label {
	case OutcomeError:
		s.log.Error("Outbound send failed", "mode", mode, "to", req.To, "error", err)
		return nil, err
	case OutcomeRouted:
		s.log.Info("Outbound send routed",
			"mode", mode,
			"to", req.To,
			"conversation_sid", outcome.ThreadID,
			"interaction_sid", outcome.InteractionID,
			"reused", outcome.Reused,
		)
	default:
		s.log.Info("Outbound send rejected", "mode", mode, "to", req.To, "outcome", label, "conversation_sid", outcome.ThreadID)
	}
	return result, nil
}

func (s *outboundService) buildRequest(in SendOutboundInput) outbound.OutboundRequest {
	body := in.Body
	template := strings.TrimSpace(in.ContentTemplateSID)
	if template != "" && outbound.ChannelFor(in.To) == outbound.ChannelWhatsApp {
		body = ""
	}
	req := outbound.OutboundRequest{
		To:                 strings.TrimSpace(in.To),
		From:               firstNonEmpty(in.From, s.defaults.From),
		Body:               body,
		ContentTemplateID:  template,
		OpenImmediately:    in.OpenChat,
		RouteToSelfOnReply: in.KnownAgentRouting,
		Worker: outbound.RequestingWorker{
			ID:           strings.TrimSpace(in.WorkerSID),
			FriendlyName: strings.TrimSpace(in.WorkerFriendlyName),
		},
		Targets: outbound.RoutingTargets{
			WorkspaceID: firstNonEmpty(in.WorkspaceSID, s.defaults.WorkspaceSID),
		},
		ReplyFlowID: firstNonEmpty(in.InboundStudioFlow, s.defaults.InboundStudioFlow),
	}
	// Queue, workflow and worker targets only apply to an immediately opened task.
	if in.OpenChat {
		req.Targets.WorkflowID = firstNonEmpty(in.WorkflowSID, s.defaults.WorkflowSID)
		req.Targets.QueueID = firstNonEmpty(in.QueueSID, s.defaults.QueueSID)
		req.Targets.WorkerID = req.Worker.ID
	}
	return req
}

func (s *outboundService) publish(ctx context.Context, activity events.OutboundActivity) {
	env := events.NewEnvelope(ctx, events.TypeOutboundActivity, activity)
	status := "ok"
	if err := s.publisher.Publish(ctx, env); err != nil {
		status = "error"
		s.log.Warn("Outbound activity publish failed", "sink", s.publisher.Sink(), "event_id", env.Meta.ID, "error", err)
	}
	if m := observability.Current(); m != nil {
		m.IncEventPublished(s.publisher.Sink(), status)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
