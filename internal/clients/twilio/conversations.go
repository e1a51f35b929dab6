package twilio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type Conversation struct {
	SID                 string `json:"sid"`
	AccountSID          string `json:"account_sid,omitempty"`
	ChatServiceSID      string `json:"chat_service_sid,omitempty"`
	MessagingServiceSID string `json:"messaging_service_sid,omitempty"`
	FriendlyName        string `json:"friendly_name,omitempty"`
	UniqueName          string `json:"unique_name,omitempty"`
	Attributes          string `json:"attributes,omitempty"`
	State               string `json:"state,omitempty"`
	DateCreated         string `json:"date_created,omitempty"`
	DateUpdated         string `json:"date_updated,omitempty"`
	URL                 string `json:"url,omitempty"`
}

type MessagingBinding struct {
	Type         string `json:"type,omitempty"`
	Address      string `json:"address,omitempty"`
	ProxyAddress string `json:"proxy_address,omitempty"`
}

type Participant struct {
	SID              string            `json:"sid"`
	ConversationSID  string            `json:"conversation_sid,omitempty"`
	Identity         string            `json:"identity,omitempty"`
	Attributes       string            `json:"attributes,omitempty"`
	MessagingBinding *MessagingBinding `json:"messaging_binding,omitempty"`
	DateCreated      string            `json:"date_created,omitempty"`
}

type ConversationWebhook struct {
	SID             string         `json:"sid"`
	ConversationSID string         `json:"conversation_sid,omitempty"`
	Target          string         `json:"target,omitempty"`
	Configuration   map[string]any `json:"configuration,omitempty"`
}

type ConversationMessage struct {
	SID             string `json:"sid"`
	ConversationSID string `json:"conversation_sid,omitempty"`
	Author          string `json:"author,omitempty"`
	Body            string `json:"body,omitempty"`
	ContentSID      string `json:"content_sid,omitempty"`
	Index           int    `json:"index,omitempty"`
	DateCreated     string `json:"date_created,omitempty"`
}

type CreateConversationParams struct {
	FriendlyName string
	Attributes   string
}

type UpdateConversationParams struct {
	Attributes string
}

type CreateParticipantParams struct {
	Identity     string
	Address      string
	ProxyAddress string
}

type CreateWebhookParams struct {
	Target  string
	FlowSID string
	URL     string
	Method  string
	Filters []string
}

type CreateMessageParams struct {
	Author     string
	Body       string
	ContentSID string
}

func (c *client) conversationURL(conversationSID string, parts ...string) string {
	u := c.cfg.ConversationsBaseURL + "/Conversations/" + pathEscape(conversationSID)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

func (c *client) CreateConversation(ctx context.Context, params CreateConversationParams) (*Conversation, error) {
	form := url.Values{}
	if s := strings.TrimSpace(params.FriendlyName); s != "" {
		form.Set("FriendlyName", s)
	}
	if s := strings.TrimSpace(params.Attributes); s != "" {
		form.Set("Attributes", s)
	}
	return doRequest[Conversation](c, ctx, request{
		op:     "conversations.create",
		method: http.MethodPost,
		url:    c.cfg.ConversationsBaseURL + "/Conversations",
		form:   form,
	})
}

func (c *client) DeleteConversation(ctx context.Context, conversationSID string) error {
	if strings.TrimSpace(conversationSID) == "" {
		return fmt.Errorf("twilio: conversation sid required")
	}
	_, err := doRequest[struct{}](c, ctx, request{
		op:     "conversations.delete",
		method: http.MethodDelete,
		url:    c.conversationURL(conversationSID),
	})
	return err
}

func (c *client) FetchConversation(ctx context.Context, conversationSID string) (*Conversation, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	return doRequest[Conversation](c, ctx, request{
		op:     "conversations.fetch",
		method: http.MethodGet,
		url:    c.conversationURL(conversationSID),
	})
}

func (c *client) UpdateConversation(ctx context.Context, conversationSID string, params UpdateConversationParams) (*Conversation, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	form := url.Values{}
	form.Set("Attributes", params.Attributes)
	return doRequest[Conversation](c, ctx, request{
		op:     "conversations.update",
		method: http.MethodPost,
		url:    c.conversationURL(conversationSID),
		form:   form,
	})
}

func (c *client) ListParticipants(ctx context.Context, conversationSID string) ([]Participant, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	return listAll[Participant](c, ctx, "participants.list", c.conversationURL(conversationSID, "Participants")+"?PageSize=50", "participants")
}

func (c *client) CreateParticipant(ctx context.Context, conversationSID string, params CreateParticipantParams) (*Participant, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	form := url.Values{}
	if s := strings.TrimSpace(params.Identity); s != "" {
		form.Set("Identity", s)
	}
	if s := strings.TrimSpace(params.Address); s != "" {
		form.Set("MessagingBinding.Address", s)
	}
	if s := strings.TrimSpace(params.ProxyAddress); s != "" {
		form.Set("MessagingBinding.ProxyAddress", s)
	}
	if len(form) == 0 {
		return nil, fmt.Errorf("twilio: participant identity or address required")
	}
	return doRequest[Participant](c, ctx, request{
		op:     "participants.create",
		method: http.MethodPost,
		url:    c.conversationURL(conversationSID, "Participants"),
		form:   form,
	})
}

func (c *client) CreateWebhook(ctx context.Context, conversationSID string, params CreateWebhookParams) (*ConversationWebhook, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	target := strings.TrimSpace(params.Target)
	if target == "" {
		return nil, fmt.Errorf("twilio: webhook target required")
	}
	form := url.Values{}
	form.Set("Target", target)
	if s := strings.TrimSpace(params.FlowSID); s != "" {
		form.Set("Configuration.FlowSid", s)
	}
	if s := strings.TrimSpace(params.URL); s != "" {
		form.Set("Configuration.Url", s)
	}
	if s := strings.TrimSpace(params.Method); s != "" {
		form.Set("Configuration.Method", s)
	}
	for _, f := range params.Filters {
		if f = strings.TrimSpace(f); f != "" {
			form.Add("Configuration.Filters", f)
		}
	}
	return doRequest[ConversationWebhook](c, ctx, request{
		op:     "webhooks.create",
		method: http.MethodPost,
		url:    c.conversationURL(conversationSID, "Webhooks"),
		form:   form,
	})
}

func (c *client) CreateMessage(ctx context.Context, conversationSID string, params CreateMessageParams) (*ConversationMessage, error) {
	if strings.TrimSpace(conversationSID) == "" {
		return nil, fmt.Errorf("twilio: conversation sid required")
	}
	form := url.Values{}
	if s := strings.TrimSpace(params.Author); s != "" {
		form.Set("Author", s)
	}
	switch {
	case strings.TrimSpace(params.ContentSID) != "":
		form.Set("ContentSid", strings.TrimSpace(params.ContentSID))
	case strings.TrimSpace(params.Body) != "":
		form.Set("Body", params.Body)
	default:
		return nil, fmt.Errorf("twilio: content required (Body or ContentSID)")
	}
	return doRequest[ConversationMessage](c, ctx, request{
		op:     "messages.create",
		method: http.MethodPost,
		url:    c.conversationURL(conversationSID, "Messages"),
		form:   form,
	})
}
