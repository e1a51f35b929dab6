package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// InteractionChannel is the Channel parameter of an Interaction create call.
type InteractionChannel struct {
	Type         string                    `json:"type"`
	InitiatedBy  string                    `json:"initiated_by,omitempty"`
	Properties   *InteractionChannelProps  `json:"properties,omitempty"`
	Participants []InteractionParticipants `json:"participants,omitempty"`
}

type InteractionChannelProps struct {
	MediaChannelSID string `json:"media_channel_sid,omitempty"`
}

type InteractionParticipants struct {
	Address      string `json:"address"`
	ProxyAddress string `json:"proxy_address"`
}

// InteractionRouting is the Routing parameter. Properties is sent as a flat
// object because TaskRouter targets (workspace_sid, queue_sid, ...) sit next
// to the task attributes.
type InteractionRouting struct {
	Properties map[string]any `json:"properties"`
}

type CreateInteractionParams struct {
	Channel InteractionChannel
	Routing InteractionRouting
}

type Interaction struct {
	SID     string          `json:"sid"`
	Channel json.RawMessage `json:"channel,omitempty"`
	Routing struct {
		Properties map[string]json.RawMessage `json:"properties,omitempty"`
	} `json:"routing"`
	URL string `json:"url,omitempty"`
}

// RoutingAttributes returns the resolved task attributes. The platform
// returns them either as a JSON object or as a JSON-encoded string.
func (i *Interaction) RoutingAttributes() (json.RawMessage, error) {
	if i == nil {
		return nil, fmt.Errorf("twilio: nil interaction")
	}
	raw, ok := i.Routing.Properties["attributes"]
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("twilio: interaction %s has no routing attributes", i.SID)
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("twilio: decode routing attributes: %w", err)
		}
		return json.RawMessage(s), nil
	}
	return raw, nil
}

func (c *client) CreateInteraction(ctx context.Context, params CreateInteractionParams) (*Interaction, error) {
	if strings.TrimSpace(params.Channel.Type) == "" {
		return nil, fmt.Errorf("twilio: interaction channel type required")
	}
	channel, err := json.Marshal(params.Channel)
	if err != nil {
		return nil, fmt.Errorf("twilio: encode channel: %w", err)
	}
	routing, err := json.Marshal(params.Routing)
	if err != nil {
		return nil, fmt.Errorf("twilio: encode routing: %w", err)
	}
	form := url.Values{}
	form.Set("Channel", string(channel))
	form.Set("Routing", string(routing))
	return doRequest[Interaction](c, ctx, request{
		op:     "interactions.create",
		method: http.MethodPost,
		url:    c.cfg.FlexBaseURL + "/Interactions",
		form:   form,
	})
}
