package outbound

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBindingConflict means the platform refused the customer binding
	// because another active thread already binds the same address pair.
	ErrBindingConflict = errors.New("active binding already exists")
	// ErrConflictUnresolvable means a binding conflict was reported but the
	// existing thread could not be identified.
	ErrConflictUnresolvable = errors.New("conflicting thread could not be determined")
	ErrInvalidRequest       = errors.New("invalid outbound request")
)

// BindingConflictError carries the pre-existing thread id recovered from the
// platform's conflict error. ExistingThreadID is empty when the id could not
// be extracted.
type BindingConflictError struct {
	ExistingThreadID string
	Err              error
}

func (e *BindingConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.ExistingThreadID == "" {
		return ErrBindingConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrBindingConflict.Error(), e.ExistingThreadID)
}

func (e *BindingConflictError) Is(target error) bool { return target == ErrBindingConflict }

func (e *BindingConflictError) Unwrap() error { return e.Err }

// ConflictBlockedError is the expected business outcome when the customer
// already has a thread owned by a live task.
type ConflictBlockedError struct {
	To      string
	Verdict ConflictVerdict
}

func (e *ConflictBlockedError) Error() string {
	if e == nil {
		return ""
	}
	return BlockedMessage(e.To, e.Verdict)
}

// BlockedMessage renders the human readable reason a send was blocked.
func BlockedMessage(to string, v ConflictVerdict) string {
	msg := fmt.Sprintf("Error sending message. There is an open %s conversation already to %s with %s",
		v.TaskDirection.Label(), to, v.AgentName)
	return strings.Join(strings.Fields(msg), " ")
}

// UnresolvableMessage is shown when a conflict was reported but the existing
// thread could not be read from it.
func UnresolvableMessage(to string) string {
	return fmt.Sprintf("Error sending message. There is an open conversation already to %s", to)
}

// IsBlocked reports whether err is a ConflictBlockedError.
func IsBlocked(err error) (*ConflictBlockedError, bool) {
	var be *ConflictBlockedError
	if errors.As(err, &be) && be != nil {
		return be, true
	}
	return nil, false
}
