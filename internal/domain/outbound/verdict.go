package outbound

// ConflictVerdict classifies a pre-existing thread found while binding the
// customer. Reusable is true only when no routing task references it.
type ConflictVerdict struct {
	Reusable         bool
	ExistingThreadID string
	ExistingThread   *Thread
	TaskDirection    Direction
	AgentName        string
}

// ThreadResolution is what the thread factory hands back: a fresh thread, a
// conflicting thread id, or neither when the conflict could not be read.
type ThreadResolution struct {
	NewThread           *Thread
	ConflictingThreadID string
}

func (r ThreadResolution) Empty() bool {
	return r.NewThread == nil && r.ConflictingThreadID == ""
}

type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeDeferred  Mode = "deferred"
)

// SendOutcome is the routed result of one orchestrator run.
type SendOutcome struct {
	Mode          Mode
	ThreadID      string
	InteractionID string
	Reused        bool
}
