package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type IdentityDeps struct {
	Log       *logger.Logger
	Threads   outbound.ThreadStore
	Directory outbound.RoutingDirectory
}

// ResolveAgentIdentity returns the decoded identity of the first participant
// joined by platform identity, or "" when the thread has none.
func ResolveAgentIdentity(ctx context.Context, deps IdentityDeps, threadID string) (string, error) {
	parts, err := deps.Threads.ListParticipants(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("list participants: %w", err)
	}
	for _, p := range parts {
		if p.IsIdentity() {
			return DecodeIdentity(p.Identity), nil
		}
	}
	return "", nil
}

// ResolveAgentName looks up the worker whose friendly name equals identity.
// Zero or several matches yield "".
func ResolveAgentName(ctx context.Context, deps IdentityDeps, workspaceID, identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", nil
	}
	workers, err := deps.Directory.ListWorkers(ctx, workspaceID, identity)
	if err != nil {
		return "", fmt.Errorf("list workers: %w", err)
	}
	var match *outbound.Worker
	for i := range workers {
		if workers[i].FriendlyName != identity {
			continue
		}
		if match != nil {
			if deps.Log != nil {
				deps.Log.Warn("Ambiguous worker lookup", "identity", identity, "matches", len(workers))
			}
			return "", nil
		}
		match = &workers[i]
	}
	if match == nil {
		return "", nil
	}
	if name := strings.TrimSpace(match.FullName); name != "" {
		return name, nil
	}
	return match.FriendlyName, nil
}

// DecodeIdentity reverses the platform identity encoding, where "_XX" stands
// for the percent escape "%XX". Underscores not followed by two hex digits
// are kept.
func DecodeIdentity(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
