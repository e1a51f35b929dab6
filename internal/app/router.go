package app

import (
	server "github.com/yungbote/outbound-messaging-backend/internal/http"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) server.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return server.RouterConfig{
		Log:                    log,
		ServiceName:            serviceName,
		CORSOrigins:            cfg.CORSOrigins,
		Metrics:                metrics,
		RateLimiter:            middleware.RateLimiter,
		AuthMiddleware:         middleware.Auth,
		OutboundHandler:        handlers.Outbound,
		ContentTemplateHandler: handlers.ContentTemplates,
		HealthHandler:          handlers.Health,
	}
}
