package twilio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/envutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/httpx"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Client interface {
	AccountSID() string

	CreateConversation(ctx context.Context, params CreateConversationParams) (*Conversation, error)
	DeleteConversation(ctx context.Context, conversationSID string) error
	FetchConversation(ctx context.Context, conversationSID string) (*Conversation, error)
	UpdateConversation(ctx context.Context, conversationSID string, params UpdateConversationParams) (*Conversation, error)
	ListParticipants(ctx context.Context, conversationSID string) ([]Participant, error)
	CreateParticipant(ctx context.Context, conversationSID string, params CreateParticipantParams) (*Participant, error)
	CreateWebhook(ctx context.Context, conversationSID string, params CreateWebhookParams) (*ConversationWebhook, error)
	CreateMessage(ctx context.Context, conversationSID string, params CreateMessageParams) (*ConversationMessage, error)

	ListTasks(ctx context.Context, workspaceSID string, params ListTasksParams) ([]Task, error)
	ListWorkers(ctx context.Context, workspaceSID string, params ListWorkersParams) ([]Worker, error)

	CreateInteraction(ctx context.Context, params CreateInteractionParams) (*Interaction, error)

	ListContents(ctx context.Context) ([]Content, error)

	ValidateFlexToken(ctx context.Context, token string) (*TokenValidation, error)
}

type Config struct {
	AccountSID           string
	AuthToken            string
	APIKey               string
	APIKeySecret         string
	ConversationsBaseURL string
	TaskRouterBaseURL    string
	FlexBaseURL          string
	ContentBaseURL       string
	IAMBaseURL           string
	Timeout              time.Duration
	// ReadMaxRetries applies to GET requests only. Writes are never retried.
	ReadMaxRetries int
	MaxPages       int
}

const (
	defaultConversationsBaseURL = "https://conversations.twilio.com/v1"
	defaultTaskRouterBaseURL    = "https://taskrouter.twilio.com/v1"
	defaultFlexBaseURL          = "https://flex-api.twilio.com/v1"
	defaultContentBaseURL       = "https://content.twilio.com/v1"
	defaultIAMBaseURL           = "https://iam.twilio.com/v1"
)

func ConfigFromEnv() Config {
	return Config{
		AccountSID:           strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		AuthToken:            strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		APIKey:               strings.TrimSpace(os.Getenv("TWILIO_API_KEY")),
		APIKeySecret:         strings.TrimSpace(os.Getenv("TWILIO_API_KEY_SECRET")),
		ConversationsBaseURL: strings.TrimSpace(os.Getenv("TWILIO_CONVERSATIONS_BASE_URL")),
		TaskRouterBaseURL:    strings.TrimSpace(os.Getenv("TWILIO_TASKROUTER_BASE_URL")),
		FlexBaseURL:          strings.TrimSpace(os.Getenv("TWILIO_FLEX_BASE_URL")),
		ContentBaseURL:       strings.TrimSpace(os.Getenv("TWILIO_CONTENT_BASE_URL")),
		IAMBaseURL:           strings.TrimSpace(os.Getenv("TWILIO_IAM_BASE_URL")),
		Timeout:              envutil.Seconds("TWILIO_TIMEOUT_SECONDS", 30*time.Second),
		ReadMaxRetries:       envutil.Int("TWILIO_READ_MAX_RETRIES", 0),
		MaxPages:             envutil.Int("TWILIO_MAX_PAGES", 20),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIKeySecret = strings.TrimSpace(cfg.APIKeySecret)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	if cfg.APIKey != "" {
		if cfg.APIKeySecret == "" {
			return nil, fmt.Errorf("missing TWILIO_API_KEY_SECRET (required when TWILIO_API_KEY is set)")
		}
	} else {
		if cfg.AuthToken == "" {
			return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN (or provide TWILIO_API_KEY + TWILIO_API_KEY_SECRET)")
		}
	}

	cfg.ConversationsBaseURL = baseOrDefault(cfg.ConversationsBaseURL, defaultConversationsBaseURL)
	cfg.TaskRouterBaseURL = baseOrDefault(cfg.TaskRouterBaseURL, defaultTaskRouterBaseURL)
	cfg.FlexBaseURL = baseOrDefault(cfg.FlexBaseURL, defaultFlexBaseURL)
	cfg.ContentBaseURL = baseOrDefault(cfg.ContentBaseURL, defaultContentBaseURL)
	cfg.IAMBaseURL = baseOrDefault(cfg.IAMBaseURL, defaultIAMBaseURL)

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ReadMaxRetries < 0 {
		cfg.ReadMaxRetries = 0
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}

	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func baseOrDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		v = def
	}
	return strings.TrimRight(v, "/")
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func (c *client) AccountSID() string { return c.cfg.AccountSID }

// ---------- HTTP helpers ----------

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "twilio: <nil error>"
	}
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		if e.APIError.Code != 0 {
			return fmt.Sprintf("twilio http %d: %s (code=%d)", e.StatusCode, e.APIError.Message, e.APIError.Code)
		}
		return fmt.Sprintf("twilio http %d: %s", e.StatusCode, e.APIError.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("twilio http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Code is the platform error code, 0 when the body carried none.
func (e *HTTPError) Code() int {
	if e == nil || e.APIError == nil {
		return 0
	}
	return e.APIError.Code
}

// Message is the platform error message, falling back to the raw body.
func (e *HTTPError) Message() string {
	if e == nil {
		return ""
	}
	if e.APIError != nil && e.APIError.Message != "" {
		return e.APIError.Message
	}
	return e.Body
}

func (c *client) basicAuth() (user, pass string) {
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey, c.cfg.APIKeySecret
	}
	return c.cfg.AccountSID, c.cfg.AuthToken
}

type request struct {
	op       string
	method   string
	url      string
	form     url.Values
	jsonBody any
}

func doRequest[T any](c *client, ctx context.Context, r request) (*T, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := otel.Tracer("twilio").Start(ctx, "twilio."+r.op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", r.method), attribute.String("twilio.op", r.op))

	start := time.Now()
	out, err := doWithReadRetries[T](c, ctx, r)
	status := "ok"
	if err != nil {
		status = strconv.Itoa(httpx.StatusOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if m := observability.Current(); m != nil {
		m.ObservePlatformCall(r.op, status, time.Since(start))
	}
	return out, err
}

func doWithReadRetries[T any](c *client, ctx context.Context, r request) (*T, error) {
	retries := 0
	if r.method == http.MethodGet {
		retries = c.cfg.ReadMaxRetries
	}
	backoff := 1 * time.Second

	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, resp, err := doOnce[T](c, ctx, r)
		if err == nil {
			return out, nil
		}

		if !httpx.IsRetryableError(err) || attempt == retries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Twilio read retrying",
			"op", r.op,
			"attempt", attempt+1,
			"max_retries", retries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("unreachable retry loop")
}

func doOnce[T any](c *client, ctx context.Context, r request) (*T, *http.Response, error) {
	var body io.Reader
	contentType := ""
	switch {
	case r.jsonBody != nil:
		raw, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, nil, fmt.Errorf("twilio encode error: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	u, p := c.basicAuth()
	req.SetBasicAuth(u, p)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
			return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), APIError: &ae}
		}
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) == 0 {
		return &out, resp, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("twilio decode error: %w; raw=%s", err, string(raw))
	}
	return &out, resp, nil
}

type pageMeta struct {
	NextPageURL string `json:"next_page_url"`
	Key         string `json:"key"`
}

// listAll follows next_page_url until exhausted or MaxPages is reached.
func listAll[T any](c *client, ctx context.Context, op, firstURL, key string) ([]T, error) {
	var out []T
	next := firstURL
	for page := 0; next != "" && page < c.cfg.MaxPages; page++ {
		raw, err := doRequest[map[string]json.RawMessage](c, ctx, request{op: op, method: http.MethodGet, url: next})
		if err != nil {
			return nil, err
		}
		if raw == nil {
			break
		}
		if items, ok := (*raw)[key]; ok && len(items) > 0 {
			var batch []T
			if err := json.Unmarshal(items, &batch); err != nil {
				return nil, fmt.Errorf("twilio decode %s: %w", key, err)
			}
			out = append(out, batch...)
		}
		next = ""
		if metaRaw, ok := (*raw)["meta"]; ok {
			var meta pageMeta
			if json.Unmarshal(metaRaw, &meta) == nil {
				next = strings.TrimSpace(meta.NextPageURL)
			}
		}
	}
	return out, nil
}

func pathEscape(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
