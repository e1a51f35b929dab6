package twilio

import (
	"errors"
	"regexp"
)

// CodeBindingConflict is returned when a messaging binding already exists
// for the address/proxy pair in another active conversation.
const CodeBindingConflict = 50416

var conversationSIDRe = regexp.MustCompile(`\bCH[a-zA-Z0-9]{32}\b`)

// ErrorCode returns the platform error code carried by err, or 0.
func ErrorCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code()
	}
	return 0
}

// TranslateConflict recognises a duplicate-binding error and recovers the
// sid of the conversation that already holds the binding. The sid is only
// available embedded in the error message. ok is false for any other error;
// existingSID is empty when the error is a conflict but carries no sid.
func TranslateConflict(err error) (existingSID string, ok bool) {
	var he *HTTPError
	if !errors.As(err, &he) || he.Code() != CodeBindingConflict {
		return "", false
	}
	return ParseConversationSID(he.Message()), true
}

// ParseConversationSID returns the first conversation sid found in s.
func ParseConversationSID(s string) string {
	return conversationSIDRe.FindString(s)
}
