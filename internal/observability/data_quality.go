package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/ctxutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/envutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

// Data-quality issues raised by the outbound flow.
const (
	IssueConflictUnparseable = "conflict_thread_unparseable"
	IssueMultipleTasks       = "multiple_tasks_for_thread"
	IssueMissingThreadID     = "interaction_without_thread"
)

// dqAlerter posts anomalies to a webhook, at most once per stage/issue per
// interval.
type dqAlerter struct {
	webhook  string
	interval time.Duration
	client   *http.Client

	mu   sync.Mutex
	last map[string]time.Time
}

var (
	alerterOnce sync.Once
	alerter     *dqAlerter
)

func currentAlerter() *dqAlerter {
	alerterOnce.Do(func() {
		if !envutil.Bool("DATA_QUALITY_ALERTS_ENABLED", false) {
			return
		}
		webhook := envutil.String("DATA_QUALITY_ALERT_WEBHOOK_URL", "")
		if webhook == "" {
			return
		}
		alerter = newDQAlerter(webhook, envutil.Seconds("DATA_QUALITY_ALERT_MIN_INTERVAL_SECONDS", 5*time.Minute))
	})
	return alerter
}

func newDQAlerter(webhook string, interval time.Duration) *dqAlerter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &dqAlerter{
		webhook:  webhook,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		last:     map[string]time.Time{},
	}
}

// ReportDataQuality records an anomaly in data returned by the messaging
// platform. It never fails or blocks the caller.
func ReportDataQuality(ctx context.Context, log *logger.Logger, stage, issue string, meta map[string]any) {
	stage = orUnknown(stage)
	issue = orUnknown(issue)
	fields := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		fields[k] = v
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		fields["trace_id"] = td.TraceID
		fields["request_id"] = td.RequestID
	}

	if m := Current(); m != nil {
		m.IncDataQuality(stage, issue)
	}
	if log != nil {
		log.Warn("Data quality issue", "stage", stage, "issue", issue, "meta", fields)
	}
	if a := currentAlerter(); a != nil && a.admit(stage+":"+issue, time.Now()) {
		go func() {
			if err := a.post(context.Background(), stage, issue, fields); err != nil && log != nil {
				log.Warn("Data quality alert failed", "stage", stage, "issue", issue, "error", err)
			}
		}()
	}
}

func (a *dqAlerter) admit(key string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.last[key]; ok && now.Sub(last) < a.interval {
		return false
	}
	a.last[key] = now
	return true
}

func (a *dqAlerter) post(ctx context.Context, stage, issue string, meta map[string]any) error {
	body, err := json.Marshal(map[string]any{
		"title":     "Outbound messaging data quality issue",
		"stage":     stage,
		"issue":     issue,
		"meta":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode)
	}
	return nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
