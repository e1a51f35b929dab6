package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound/mock"
	"github.com/yungbote/outbound-messaging-backend/internal/events"
	httpH "github.com/yungbote/outbound-messaging-backend/internal/http/handlers"
	outboundmod "github.com/yungbote/outbound-messaging-backend/internal/modules/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

func newTestRouter(p *mock.Platform) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	uc := outboundmod.New(outboundmod.UsecasesDeps{Log: log, Platform: p})
	svc := services.NewOutboundService(log, uc, events.Nop{}, services.OutboundDefaults{
		From:              "+15559990000",
		WorkspaceSID:      "WS1",
		InboundStudioFlow: "FW1",
	})
	return NewRouter(RouterConfig{
		Log:             log,
		CORSOrigins:     []string{"*"},
		HealthHandler:   httpH.NewHealthHandler("test"),
		OutboundHandler: httpH.NewOutboundHandler(svc),
	})
}

func TestHealthcheck(t *testing.T) {
	r := newTestRouter(mock.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	if got := rec.Header().Get("X-Service-Version"); got != "test" {
		t.Fatalf("version header: got %q", got)
	}
}

func TestRequestIDIsEchoedWhenPrintable(t *testing.T) {
	r := newTestRouter(mock.New())

	req := httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil)
	req.Header.Set("X-Request-Id", "panel-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "panel-42" {
		t.Fatalf("request id: want=panel-42 got=%q", got)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil)
	req.Header.Set("X-Request-Id", "bad id with spaces")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got == "" || got == "bad id with spaces" {
		t.Fatalf("request id should be regenerated, got %q", got)
	}
}

func TestOutboundEndToEnd(t *testing.T) {
	p := mock.New()
	r := newTestRouter(p)

	post := func() string {
		req := httptest.NewRequest(nethttp.MethodPost, "/api/outbound/messages",
			strings.NewReader(`{"To":"+15551234567","Body":"hello","WorkerFriendlyName":"jane.doe"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
		}
		return rec.Body.String()
	}

	first := post()
	if !strings.Contains(first, `"success":true`) {
		t.Fatalf("first send failed: %s", first)
	}
	threadID := p.BoundThread("+15551234567", "+15559990000")
	if threadID == "" {
		t.Fatalf("customer not bound")
	}

	p.AddTask(threadID, "inbound")
	second := post()
	if !strings.Contains(second, `"success":false`) || !strings.Contains(second, "open Inbound conversation already to +15551234567") {
		t.Fatalf("expected blocked result, got %s", second)
	}
}
