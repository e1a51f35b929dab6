package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

type stubValidator struct {
	want string
	got  string
}

func (s *stubValidator) Validate(_ context.Context, token string) (*services.AgentIdentity, error) {
	s.got = token
	if token != s.want {
		return nil, services.ErrTokenInvalid
	}
	return &services.AgentIdentity{Identity: "jane.doe", WorkerSID: "WK1"}, nil
}

func newAuthRouter(v services.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(logger.NewNop(), v).RequireAuth())
	r.POST("/echo", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		var body struct {
			To string `json:"To" form:"To"`
		}
		_ = c.ShouldBind(&body)
		c.JSON(http.StatusOK, gin.H{"identity": rd.Identity, "to": body.To})
	})
	return r
}

func TestAuthTokenSources(t *testing.T) {
	cases := []struct {
		name  string
		build func() *http.Request
	}{
		{"bearer", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"To":"+1555"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer good")
			return req
		}},
		{"flex header", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"To":"+1555"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Flex-JWE", "good")
			return req
		}},
		{"json body", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"Token":"good","To":"+1555"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}},
		{"form body", func() *http.Request {
			form := url.Values{"Token": {"good"}, "To": {"+1555"}}
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
			return req
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &stubValidator{want: "good"}
			rec := httptest.NewRecorder()
			newAuthRouter(v).ServeHTTP(rec, tc.build())
			if rec.Code != http.StatusOK {
				t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"identity":"jane.doe"`) || !strings.Contains(rec.Body.String(), `"to":"+1555"`) {
				t.Fatalf("body lost or identity missing: %s", rec.Body.String())
			}
		})
	}
}

func TestAuthRejects(t *testing.T) {
	v := &stubValidator{want: "good"}
	r := newAuthRouter(v)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: want=401 got=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", rec.Code)
	}
}

func TestNewAuthMiddlewareNilValidator(t *testing.T) {
	if NewAuthMiddleware(logger.NewNop(), nil) != nil {
		t.Fatalf("expected nil middleware without validator")
	}
}
