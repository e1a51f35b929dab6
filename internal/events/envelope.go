package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
)

const (
	Producer             = "outbound-messaging"
	TypeOutboundActivity = "outbound.activity.v1"
)

type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	// Event name and version, e.g. outbound.activity.v1
	Type string `json:"type"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// OutboundActivity is published once per outbound send that reached a
// terminal state.
type OutboundActivity struct {
	Outcome       string `json:"outcome"`
	Mode          string `json:"mode"`
	ThreadID      string `json:"thread_id,omitempty"`
	InteractionID string `json:"interaction_id,omitempty"`
	To            string `json:"to"`
	From          string `json:"from"`
	WorkerSID     string `json:"worker_sid,omitempty"`
	WorkerName    string `json:"worker_name,omitempty"`
	Reused        bool   `json:"reused"`
	TaskDirection string `json:"task_direction,omitempty"`
	AgentName     string `json:"agent_name,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// NewEnvelope stamps data with a fresh id. The request id, when present,
// becomes the correlation id.
func NewEnvelope(ctx context.Context, eventType string, data any) Envelope {
	id := uuid.NewString()
	corr := ctxutil.RequestID(ctx)
	if corr == "" {
		corr = id
	}
	return Envelope{
		Meta: Meta{
			ID:            id,
			CorrelationID: corr,
			Producer:      Producer,
			Time:          time.Now().UTC(),
			Type:          eventType,
		},
		Data: data,
	}
}
