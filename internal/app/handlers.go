package app

import (
	httpH "github.com/yungbote/outbound-messaging-backend/internal/http/handlers"
	httpMW "github.com/yungbote/outbound-messaging-backend/internal/http/middleware"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Handlers struct {
	Health           *httpH.HealthHandler
	Outbound         *httpH.OutboundHandler
	ContentTemplates *httpH.ContentTemplateHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:   httpH.NewHealthHandler(cfg.Version),
		Outbound: httpH.NewOutboundHandler(services.Outbound),
	}
	if services.ContentTemplates != nil {
		h.ContentTemplates = httpH.NewContentTemplateHandler(services.ContentTemplates)
	}
	return h
}

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	RateLimiter *httpMW.RateLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, services.Tokens),
		RateLimiter: httpMW.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}
