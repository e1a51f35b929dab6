package twilio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TokenValidation is the IAM answer for a Flex agent token.
type TokenValidation struct {
	Valid       bool     `json:"valid"`
	Code        int      `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`
	Expiration  string   `json:"expiration,omitempty"`
	RealmUserID string   `json:"realm_user_id,omitempty"`
	Identity    string   `json:"identity,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	WorkerSID   string   `json:"worker_sid,omitempty"`
}

func (c *client) ValidateFlexToken(ctx context.Context, token string) (*TokenValidation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("twilio: token required")
	}
	return doRequest[TokenValidation](c, ctx, request{
		op:       "iam.tokens.validate",
		method:   http.MethodPost,
		url:      c.cfg.IAMBaseURL + "/Accounts/" + pathEscape(c.cfg.AccountSID) + "/Tokens/validate",
		jsonBody: map[string]string{"token": token},
	})
}
