package outbound

import (
	"context"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/modules/outbound/steps"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	Log      *logger.Logger
	Platform outbound.Platform
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

// Send runs the outbound orchestrator for one validated request.
func (u Usecases) Send(ctx context.Context, req outbound.OutboundRequest) (outbound.SendOutcome, error) {
	return steps.Send(ctx, steps.SendDeps{Log: u.deps.Log, Platform: u.deps.Platform}, req)
}

// Classify reports whether an existing thread can be reused.
func (u Usecases) Classify(ctx context.Context, workspaceID, threadID string) (outbound.ConflictVerdict, error) {
	return steps.Classify(ctx, steps.ClassifyDeps{
		Log:       u.deps.Log,
		Threads:   u.deps.Platform,
		Directory: u.deps.Platform,
	}, workspaceID, threadID)
}
