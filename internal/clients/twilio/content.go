package twilio

import "context"

type Content struct {
	SID          string         `json:"sid"`
	FriendlyName string         `json:"friendly_name,omitempty"`
	Language     string         `json:"language,omitempty"`
	Types        map[string]any `json:"types,omitempty"`
	DateCreated  string         `json:"date_created,omitempty"`
}

func (c *client) ListContents(ctx context.Context) ([]Content, error) {
	return listAll[Content](c, ctx, "contents.list", c.cfg.ContentBaseURL+"/Content?PageSize=50", "contents")
}
