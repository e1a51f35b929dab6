package outbound

import (
	"fmt"
	"strings"
)

// RequestingWorker is the agent initiating the outbound message.
type RequestingWorker struct {
	ID           string
	FriendlyName string
}

// OutboundRequest is the caller-supplied intent.
type OutboundRequest struct {
	To                 string
	From               string
	Body               string
	ContentTemplateID  string
	OpenImmediately    bool
	RouteToSelfOnReply bool
	Worker             RequestingWorker
	Targets            RoutingTargets
	ReplyFlowID        string
}

// Channel is derived from the customer address.
func (r OutboundRequest) Channel() ChannelType {
	return ChannelFor(r.To)
}

// InitialMessage applies the channel rule: a content template is only used on
// WhatsApp, everything else is sent as free text.
func (r OutboundRequest) InitialMessage() Message {
	return BuildMessage(r.Channel(), r.Worker.FriendlyName, r.Body, r.ContentTemplateID)
}

func BuildMessage(channel ChannelType, author, body, templateID string) Message {
	templateID = strings.TrimSpace(templateID)
	if channel == ChannelWhatsApp && templateID != "" {
		return Message{Author: author, ContentTemplateID: templateID}
	}
	return Message{Author: author, Body: body}
}

// Validate checks the fields every path needs. It does not touch the
// platform.
func (r OutboundRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(r.From) == "" {
		missing = append(missing, "from")
	}
	if strings.TrimSpace(r.Targets.WorkspaceID) == "" {
		missing = append(missing, "workspace")
	}
	msg := r.InitialMessage()
	if strings.TrimSpace(msg.Body) == "" && msg.ContentTemplateID == "" {
		missing = append(missing, "body")
	}
	if r.OpenImmediately {
		if strings.TrimSpace(r.Targets.WorkflowID) == "" {
			missing = append(missing, "workflow")
		}
	} else {
		if strings.TrimSpace(r.ReplyFlowID) == "" {
			missing = append(missing, "reply flow")
		}
		if r.RouteToSelfOnReply && strings.TrimSpace(r.Worker.ID) == "" {
			missing = append(missing, "worker")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if ChannelFor(r.To) != ChannelFor(r.From) {
		return fmt.Errorf("%w: to and from must use the same channel", ErrInvalidRequest)
	}
	return nil
}
