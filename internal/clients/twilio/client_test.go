package twilio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.Handler, mutate ...func(*Config)) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{
		AccountSID:           "AC123",
		AuthToken:            "secret",
		ConversationsBaseURL: srv.URL + "/conversations",
		TaskRouterBaseURL:    srv.URL + "/taskrouter",
		FlexBaseURL:          srv.URL + "/flex",
		ContentBaseURL:       srv.URL + "/content",
		IAMBaseURL:           srv.URL + "/iam",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(logger.NewNop(), cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesCredentials(t *testing.T) {
	log := logger.NewNop()

	_, err := New(log, Config{AuthToken: "x"})
	assert.ErrorContains(t, err, "TWILIO_ACCOUNT_SID")

	_, err = New(log, Config{AccountSID: "AC1"})
	assert.ErrorContains(t, err, "TWILIO_AUTH_TOKEN")

	_, err = New(log, Config{AccountSID: "AC1", APIKey: "SK1"})
	assert.ErrorContains(t, err, "TWILIO_API_KEY_SECRET")

	c, err := New(log, Config{AccountSID: " AC1 ", APIKey: "SK1", APIKeySecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "AC1", c.AccountSID())
}

func TestBasicAuthPrefersAPIKey(t *testing.T) {
	var user, pass string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		writeJSON(w, http.StatusOK, map[string]any{"sid": "CH1"})
	}), func(cfg *Config) {
		cfg.APIKey = "SK1"
		cfg.APIKeySecret = "keysecret"
	})

	_, err := c.FetchConversation(context.Background(), "CH1")
	require.NoError(t, err)
	assert.Equal(t, "SK1", user)
	assert.Equal(t, "keysecret", pass)
}

func TestAddBindingConflictIsTyped(t *testing.T) {
	var form url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/Conversations/CHnew/Participants", r.URL.Path)
		_ = r.ParseForm()
		form = r.PostForm
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":    CodeBindingConflict,
			"message": "A binding for this participant and proxy address already exists in Conversation " + existingSID,
			"status":  409,
		})
	}))
	p := NewPlatform(logger.NewNop(), c)

	_, err := p.AddBinding(context.Background(), "CHnew", outbound.Binding{Address: "+15551234567", ProxyAddress: "+15559990000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, outbound.ErrBindingConflict)

	var conflict *outbound.BindingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existingSID, conflict.ExistingThreadID)
	assert.Equal(t, "+15551234567", form.Get("MessagingBinding.Address"))
	assert.Equal(t, "+15559990000", form.Get("MessagingBinding.ProxyAddress"))
}

func TestAddBindingOtherErrorIsNotConflict(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 50407, "message": "Invalid address"})
	}))
	p := NewPlatform(logger.NewNop(), c)

	_, err := p.AddBinding(context.Background(), "CHnew", outbound.Binding{Address: "bad", ProxyAddress: "+15559990000"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, outbound.ErrBindingConflict)
	assert.Equal(t, 50407, ErrorCode(err))
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"code": 20500, "message": "unavailable"})
	}), func(cfg *Config) { cfg.ReadMaxRetries = 3 })

	_, err := c.CreateConversation(context.Background(), CreateConversationParams{})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestListFollowsPagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/taskrouter/Workspaces/WS1/Workers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Page") == "1" {
			writeJSON(w, http.StatusOK, map[string]any{
				"workers": []map[string]any{{"sid": "WK2", "friendly_name": "amy", "attributes": "{}"}},
				"meta":    map[string]any{"key": "workers", "next_page_url": nil},
			})
			return
		}
		assert.Equal(t, "amy", r.URL.Query().Get("FriendlyName"))
		writeJSON(w, http.StatusOK, map[string]any{
			"workers": []map[string]any{{"sid": "WK1", "friendly_name": "amy", "attributes": `{"full_name":"Amy Pond"}`}},
			"meta":    map[string]any{"key": "workers", "next_page_url": srvURL + "/taskrouter/Workspaces/WS1/Workers?Page=1"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c, err := New(logger.NewNop(), Config{AccountSID: "AC1", AuthToken: "t", TaskRouterBaseURL: srv.URL + "/taskrouter"})
	require.NoError(t, err)
	p := NewPlatform(logger.NewNop(), c)

	workers, err := p.ListWorkers(context.Background(), "WS1", "amy")
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, outbound.Worker{ID: "WK1", FriendlyName: "amy", FullName: "Amy Pond"}, workers[0])
	assert.Equal(t, "WK2", workers[1].ID)
	assert.Empty(t, workers[1].FullName)
}

func TestListTasksSendsFilterAndDecodesAttributes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `conversationSid == "CH1"`, r.URL.Query().Get("EvaluateTaskAttributes"))
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks": []map[string]any{{
				"sid":               "WT1",
				"assignment_status": "assigned",
				"attributes":        `{"conversationSid":"CH1","direction":"inbound"}`,
			}},
			"meta": map[string]any{"key": "tasks"},
		})
	}))
	p := NewPlatform(logger.NewNop(), c)

	tasks, err := p.ListTasks(context.Background(), "WS1", `conversationSid == "CH1"`)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "WT1", tasks[0].ID)
	assert.Equal(t, outbound.Direction("inbound"), tasks[0].Attributes.Direction)
}

func TestCreateInteractionRecoversThread(t *testing.T) {
	var channel, routing map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flex/Interactions", r.URL.Path)
		_ = r.ParseForm()
		assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("Channel")), &channel))
		assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("Routing")), &routing))
		writeJSON(w, http.StatusCreated, map[string]any{
			"sid": "KD1",
			"routing": map[string]any{"properties": map[string]any{
				"attributes": `{"conversationSid":"CH9"}`,
			}},
		})
	}))
	p := NewPlatform(logger.NewNop(), c)

	got, err := p.CreateInteraction(context.Background(), outbound.InteractionRequest{
		ChannelType:           outbound.ChannelSMS,
		InitiatedBy:           outbound.InitiatedByAgent,
		MediaThreadID:         "CH1",
		Targets:               outbound.RoutingTargets{WorkspaceID: "WS1", QueueID: "WQ1"},
		TaskChannelUniqueName: outbound.TaskChannelChat,
		Attributes:            outbound.TaskAttributes{Direction: "outbound"},
	})
	require.NoError(t, err)
	assert.Equal(t, &outbound.Interaction{ID: "KD1", ThreadID: "CH9"}, got)

	assert.Equal(t, "sms", channel["type"])
	assert.Equal(t, map[string]any{"media_channel_sid": "CH1"}, channel["properties"])
	props := routing["properties"].(map[string]any)
	assert.Equal(t, "WS1", props["workspace_sid"])
	assert.Equal(t, "WQ1", props["queue_sid"])
	assert.NotContains(t, props, "workflow_sid")
	assert.Equal(t, "chat", props["task_channel_unique_name"])
}

func TestInteractionRoutingAttributesObjectForm(t *testing.T) {
	var i Interaction
	require.NoError(t, json.Unmarshal([]byte(`{"sid":"KD1","routing":{"properties":{"attributes":{"conversationSid":"CH2"}}}}`), &i))
	raw, err := i.RoutingAttributes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"conversationSid":"CH2"}`, string(raw))

	_, err = (&Interaction{SID: "KD2"}).RoutingAttributes()
	assert.Error(t, err)
}

func TestPostMessageTemplateWinsOverBody(t *testing.T) {
	var form url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))
		writeJSON(w, http.StatusCreated, map[string]any{"sid": "IM1"})
	}))
	p := NewPlatform(logger.NewNop(), c)

	err := p.PostMessage(context.Background(), "CH1", outbound.Message{Author: "amy", Body: "hi", ContentTemplateID: "HX1"})
	require.NoError(t, err)
	assert.Equal(t, "HX1", form.Get("ContentSid"))
	assert.Empty(t, form.Get("Body"))
	assert.Equal(t, "amy", form.Get("Author"))
}

func TestValidateFlexToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iam/Accounts/AC123/Tokens/validate", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if strings.TrimSpace(body["token"]) != "good" {
			writeJSON(w, http.StatusForbidden, map[string]any{"code": 20403, "message": "forbidden"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "worker_sid": "WK1", "identity": "amy"})
	}))

	res, err := c.ValidateFlexToken(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "WK1", res.WorkerSID)

	_, err = c.ValidateFlexToken(context.Background(), "bad")
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.HTTPStatusCode())
}
