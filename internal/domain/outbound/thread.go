package outbound

import "strings"

// Thread is a conversation between one customer address and one sending
// (proxy) address on the messaging platform.
type Thread struct {
	ID           string
	FriendlyName string
	State        string
	Attributes   ThreadAttributes
}

// ThreadAttributes is the typed view of the attribute bag stored on a
// thread. The reply-handling flow reads these to decide whether to target
// the initiating agent.
type ThreadAttributes struct {
	KnownAgentRoutingFlag bool   `json:"KnownAgentRoutingFlag,omitempty"`
	KnownAgentWorkerSid   string `json:"KnownAgentWorkerSid,omitempty"`
}

// Participant is either bound by messaging address (the customer) or by
// platform identity (an agent).
type Participant struct {
	ID       string
	Identity string
	Binding  *Binding
}

// IsIdentity reports whether the participant joined as a platform identity
// rather than through a messaging binding.
func (p Participant) IsIdentity() bool {
	return strings.TrimSpace(p.Identity) != ""
}

type Binding struct {
	Address      string
	ProxyAddress string
}

// Webhook points thread events at an external flow.
type Webhook struct {
	Target string
	FlowID string
}

const WebhookTargetStudio = "studio"

// Message is posted to a thread. Exactly one of Body and ContentTemplateID
// is sent.
type Message struct {
	Author            string
	Body              string
	ContentTemplateID string
}
