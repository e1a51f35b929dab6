package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

type fakeOutboundService struct {
	got services.SendOutboundInput
	res *services.SendOutboundResult
	err error
}

func (f *fakeOutboundService) Send(_ context.Context, in services.SendOutboundInput) (*services.SendOutboundResult, error) {
	f.got = in
	return f.res, f.err
}

func newOutboundRouter(svc services.OutboundService, rd *ctxutil.RequestData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if rd != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
			c.Next()
		})
	}
	h := NewOutboundHandler(svc)
	r.POST("/sendOutboundMessage", h.SendOutboundMessage)
	return r
}

func TestSendOutboundMessageFormPost(t *testing.T) {
	svc := &fakeOutboundService{res: &services.SendOutboundResult{Success: true, ConversationSID: "CH1", To: "+15551234567"}}
	r := newOutboundRouter(svc, nil)

	form := url.Values{
		"To":                    {"+15551234567"},
		"Body":                  {"hello"},
		"OpenChatFlag":          {"false"},
		"KnownAgentRoutingFlag": {"true"},
		"WorkerSid":             {"WK1"},
		"WorkerFriendlyName":    {"jane.doe"},
		"InboundStudioFlow":     {"FW1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/sendOutboundMessage", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.got.OpenChat || !svc.got.KnownAgentRouting {
		t.Fatalf("flags not parsed: %+v", svc.got)
	}
	if svc.got.To != "+15551234567" || svc.got.WorkerSID != "WK1" || svc.got.InboundStudioFlow != "FW1" {
		t.Fatalf("fields not bound: %+v", svc.got)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true || body["conversationSid"] != "CH1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSendOutboundMessageJSONFlags(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`"true"`, true},
		{`false`, false},
		{`"nope"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			svc := &fakeOutboundService{res: &services.SendOutboundResult{Success: true}}
			r := newOutboundRouter(svc, nil)
			payload := fmt.Sprintf(`{"To":"+1555","Body":"hi","OpenChatFlag":%s}`, tc.raw)
			req := httptest.NewRequest(http.MethodPost, "/sendOutboundMessage", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: want=200 got=%d", rec.Code)
			}
			if svc.got.OpenChat != tc.want {
				t.Fatalf("OpenChat: want=%v got=%v", tc.want, svc.got.OpenChat)
			}
		})
	}
}

func TestSendOutboundMessageDefaultsWorkerFromToken(t *testing.T) {
	svc := &fakeOutboundService{res: &services.SendOutboundResult{Success: true}}
	r := newOutboundRouter(svc, &ctxutil.RequestData{Identity: "jane.doe", WorkerSID: "WK9"})

	req := httptest.NewRequest(http.MethodPost, "/sendOutboundMessage", strings.NewReader(`{"To":"+1555","Body":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if svc.got.WorkerSID != "WK9" || svc.got.WorkerFriendlyName != "jane.doe" {
		t.Fatalf("worker defaults not applied: %+v", svc.got)
	}
}

func TestSendOutboundMessageErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", fmt.Errorf("%w: missing to", outbound.ErrInvalidRequest), http.StatusBadRequest},
		{"platform", errors.New("twilio: 503"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newOutboundRouter(&fakeOutboundService{err: tc.err}, nil)
			req := httptest.NewRequest(http.MethodPost, "/sendOutboundMessage", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.err.Error()) {
				t.Fatalf("error message not propagated: %s", rec.Body.String())
			}
		})
	}
}

func TestSendOutboundMessageMalformedJSON(t *testing.T) {
	r := newOutboundRouter(&fakeOutboundService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/sendOutboundMessage", strings.NewReader(`{"To":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
}
