package app

import (
	"context"
	"fmt"

	"github.com/yungbote/outbound-messaging-backend/internal/clients/twilio"
	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound/mock"
	"github.com/yungbote/outbound-messaging-backend/internal/events"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Clients struct {
	Twilio    twilio.Client
	Platform  outbound.Platform
	Publisher events.Publisher
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, dryRun bool) (Clients, error) {
	log.Info("Wiring clients...")

	var out Clients
	if dryRun {
		log.Warn("Dry run: using in-memory messaging platform")
		out.Platform = mock.New()
	} else {
		tw, err := twilio.New(log, cfg.Twilio)
		if err != nil {
			return Clients{}, fmt.Errorf("init twilio client: %w", err)
		}
		out.Twilio = tw
		out.Platform = twilio.NewPlatform(log, tw)
	}

	pub, err := events.New(ctx, log, cfg.Events)
	if err != nil {
		return Clients{}, fmt.Errorf("init events publisher: %w", err)
	}
	out.Publisher = pub
	return out, nil
}

func (c Clients) Close() {
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
}
