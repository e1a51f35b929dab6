package app

import (
	"github.com/yungbote/outbound-messaging-backend/internal/clients/twilio"
	"github.com/yungbote/outbound-messaging-backend/internal/events"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/envutil"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

const (
	AuthModeFlex = "flex"
	AuthModeNone = "none"
)

type Config struct {
	Version string
	Port    string
	LogMode string

	Twilio   twilio.Config
	Defaults services.OutboundDefaults

	AuthMode       string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	Events                     events.Config
	ContentTemplateFiltersPath string

	MetricsAddr string
	Otel        observability.OtelConfig
}

func LoadConfig(log *logger.Logger, version string) Config {
	cfg := Config{
		Version: version,
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		Twilio:  twilio.ConfigFromEnv(),
		Defaults: services.OutboundDefaults{
			From:              envutil.String("TWILIO_FROM_NUMBER", ""),
			WorkspaceSID:      envutil.String("TWILIO_WORKSPACE_SID", ""),
			WorkflowSID:       envutil.String("TWILIO_WORKFLOW_SID", ""),
			QueueSID:          envutil.String("TWILIO_QUEUE_SID", ""),
			InboundStudioFlow: envutil.String("TWILIO_INBOUND_STUDIO_FLOW", ""),
		},
		AuthMode:                   envutil.String("AUTH_MODE", AuthModeFlex),
		CORSOrigins:                envutil.List("CORS_ALLOW_ORIGINS", []string{"*"}),
		RateLimitRPS:               envutil.Float("RATE_LIMIT_RPS", 5),
		RateLimitBurst:             envutil.Int("RATE_LIMIT_BURST", 10),
		Events:                     events.ConfigFromEnv(),
		ContentTemplateFiltersPath: envutil.String("CONTENT_TEMPLATE_FILTERS_YAML", ""),
		MetricsAddr:                envutil.String("METRICS_ADDR", ""),
		Otel:                       observability.OtelConfigFromEnv(version),
	}
	if log != nil {
		log.Info("Config loaded",
			"port", cfg.Port,
			"auth_mode", cfg.AuthMode,
			"events_sink", cfg.Events.Sink,
			"workspace_sid", cfg.Defaults.WorkspaceSID,
			"metrics_enabled", observability.Enabled(),
			"otel_enabled", cfg.Otel.Enabled,
		)
	}
	return cfg
}
