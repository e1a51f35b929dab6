package app

import (
	outboundmod "github.com/yungbote/outbound-messaging-backend/internal/modules/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

type Services struct {
	Outbound         services.OutboundService
	ContentTemplates services.ContentTemplateService
	Tokens           services.TokenValidator
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) Services {
	log.Info("Wiring services...")

	usecases := outboundmod.New(outboundmod.UsecasesDeps{
		Log:      log.With("module", "outbound"),
		Platform: clients.Platform,
	})

	out := Services{
		Outbound: services.NewOutboundService(log, usecases, clients.Publisher, cfg.Defaults),
	}
	if clients.Twilio != nil {
		filters := services.ContentTemplateFiltersFromEnv(log)
		if cfg.ContentTemplateFiltersPath != "" {
			f, err := services.LoadContentTemplateFilters(cfg.ContentTemplateFiltersPath)
			if err != nil {
				log.Warn("Content template filters unreadable; using defaults", "path", cfg.ContentTemplateFiltersPath, "error", err)
			} else {
				filters = f
			}
		}
		out.ContentTemplates = services.NewContentTemplateService(log, clients.Twilio, clients.Twilio.AccountSID(), filters)
		if cfg.AuthMode == AuthModeFlex {
			out.Tokens = services.NewTokenValidator(log, clients.Twilio)
		}
	}
	if out.Tokens == nil && cfg.AuthMode == AuthModeFlex {
		log.Warn("Token validation unavailable; routes are unauthenticated")
	}
	return out
}
