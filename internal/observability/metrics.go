package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests      *CounterVec
	apiLatency       *HistogramVec
	apiInflight      *Gauge
	outboundResults  *CounterVec
	outboundDuration *HistogramVec
	platformCalls    *CounterVec
	platformLatency  *HistogramVec
	dataQuality      *CounterVec
	eventsPublished  *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ob_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ob_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight:     NewGauge("ob_api_inflight_requests", "In-flight API requests."),
		outboundResults: NewCounterVec("ob_outbound_results_total", "Outbound send results by mode/outcome.", []string{"mode", "outcome"}),
		outboundDuration: NewHistogramVec(
			"ob_outbound_duration_seconds",
			"End to end outbound send duration by mode/outcome.",
			[]string{"mode", "outcome"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		platformCalls: NewCounterVec("ob_platform_calls_total", "Messaging platform calls by op/status.", []string{"op", "status"}),
		platformLatency: NewHistogramVec(
			"ob_platform_call_duration_seconds",
			"Messaging platform call latency by op.",
			[]string{"op"},
			[]float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		dataQuality:     NewCounterVec("ob_data_quality_issues_total", "Data quality issues by stage/issue.", []string{"stage", "issue"}),
		eventsPublished: NewCounterVec("ob_events_published_total", "Outbound activity events by sink/status.", []string{"sink", "status"}),
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ObserveOutbound(mode, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.outboundResults.Inc(mode, outcome)
	m.outboundDuration.Observe(dur.Seconds(), mode, outcome)
}

func (m *Metrics) ObservePlatformCall(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.platformCalls.Inc(op, status)
	m.platformLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncDataQuality(stage, issue string) {
	if m == nil {
		return
	}
	m.dataQuality.Inc(stage, issue)
}

func (m *Metrics) IncEventPublished(sink, status string) {
	if m == nil {
		return
	}
	m.eventsPublished.Inc(sink, status)
}

// StartServer exposes the metrics on a dedicated listener until ctx ends.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.outboundResults,
		m.outboundDuration,
		m.platformCalls,
		m.platformLatency,
		m.dataQuality,
		m.eventsPublished,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
