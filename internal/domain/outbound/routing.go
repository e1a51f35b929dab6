package outbound

import "strings"

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Label renders the direction for humans; unknown directions render empty.
func (d Direction) Label() string {
	switch Direction(strings.ToLower(strings.TrimSpace(string(d)))) {
	case DirectionInbound:
		return "Inbound"
	case DirectionOutbound:
		return "Outbound"
	default:
		return ""
	}
}

type ChannelType string

const (
	ChannelSMS      ChannelType = "sms"
	ChannelWhatsApp ChannelType = "whatsapp"
)

const whatsAppPrefix = "whatsapp:"

// ChannelFor selects the channel from the customer address prefix.
func ChannelFor(address string) ChannelType {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(address)), whatsAppPrefix) {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

// RoutingTask is a unit of agent work on the routing platform.
type RoutingTask struct {
	ID               string
	AssignmentStatus string
	Attributes       TaskAttributes
}

// TaskAttributes is the typed subset of a task attribute bag this service
// reads or writes.
type TaskAttributes struct {
	ConversationSid string      `json:"conversationSid,omitempty"`
	Direction       Direction   `json:"direction,omitempty"`
	From            string      `json:"from,omitempty"`
	CustomerName    string      `json:"customerName,omitempty"`
	CustomerAddress string      `json:"customerAddress,omitempty"`
	TwilioNumber    string      `json:"twilioNumber,omitempty"`
	ChannelType     ChannelType `json:"channelType,omitempty"`
}

// Worker is an agent in the routing directory.
type Worker struct {
	ID           string
	FriendlyName string
	FullName     string
}

// RoutingTargets are the caller-supplied queue/workflow/worker targets for an
// immediately opened task.
type RoutingTargets struct {
	WorkspaceID string
	WorkflowID  string
	QueueID     string
	WorkerID    string
}

const TaskChannelChat = "chat"

// InteractionRequest opens a routed task against an existing thread.
type InteractionRequest struct {
	ChannelType           ChannelType
	InitiatedBy           string
	MediaThreadID         string
	Targets               RoutingTargets
	TaskChannelUniqueName string
	Attributes            TaskAttributes
}

const InitiatedByAgent = "agent"

// Interaction is the platform's answer to an InteractionRequest. ThreadID is
// recovered from the resolved routing attributes.
type Interaction struct {
	ID       string
	ThreadID string
}
