package services

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/outbound-messaging-backend/internal/clients/twilio"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

const contentTemplateFiltersEnv = "CONTENT_TEMPLATE_FILTERS_YAML"

//go:embed content_template_filters.yaml
var defaultContentTemplateFilters []byte

type ContentTemplate struct {
	SID  string `json:"sid"`
	Name string `json:"name"`
}

// ContentTemplateFilters restricts the templates offered per account. When
// disabled, or when an account has no entry, every template is offered.
type ContentTemplateFilters struct {
	Enabled  bool                `yaml:"enabled"`
	Accounts map[string][]string `yaml:"accounts"`
}

func (f ContentTemplateFilters) Allows(accountSID, templateSID string) bool {
	if !f.Enabled {
		return true
	}
	allowed, ok := f.Accounts[accountSID]
	if !ok {
		return true
	}
	for _, sid := range allowed {
		if sid == templateSID {
			return true
		}
	}
	return false
}

// LoadContentTemplateFilters reads path, or the built-in filters when path
// is empty.
func LoadContentTemplateFilters(path string) (ContentTemplateFilters, error) {
	data := defaultContentTemplateFilters
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return ContentTemplateFilters{}, fmt.Errorf("read %s: %w", path, err)
		}
		data = raw
	}
	var f ContentTemplateFilters
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ContentTemplateFilters{}, fmt.Errorf("parse content template filters: %w", err)
	}
	return f, nil
}

// ContentTemplateFiltersFromEnv loads the filters named by
// CONTENT_TEMPLATE_FILTERS_YAML. A broken file disables filtering.
func ContentTemplateFiltersFromEnv(log *logger.Logger) ContentTemplateFilters {
	f, err := LoadContentTemplateFilters(os.Getenv(contentTemplateFiltersEnv))
	if err != nil {
		if log != nil {
			log.Warn("content template filters load failed; serving all templates", "error", err)
		}
		return ContentTemplateFilters{}
	}
	return f
}

type ContentLister interface {
	ListContents(ctx context.Context) ([]twilio.Content, error)
}

type ContentTemplateService interface {
	List(ctx context.Context) ([]ContentTemplate, error)
}

type contentTemplateService struct {
	log        *logger.Logger
	lister     ContentLister
	accountSID string
	filters    ContentTemplateFilters
}

func NewContentTemplateService(log *logger.Logger, lister ContentLister, accountSID string, filters ContentTemplateFilters) ContentTemplateService {
	return &contentTemplateService{
		log:        log.With("service", "ContentTemplateService"),
		lister:     lister,
		accountSID: accountSID,
		filters:    filters,
	}
}

func (s *contentTemplateService) List(ctx context.Context) ([]ContentTemplate, error) {
	contents, err := s.lister.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list content templates: %w", err)
	}
	out := make([]ContentTemplate, 0, len(contents))
	for _, c := range contents {
		if !s.filters.Allows(s.accountSID, c.SID) {
			continue
		}
		out = append(out, ContentTemplate{SID: c.SID, Name: c.FriendlyName})
	}
	s.log.Debug("Content templates listed", "total", len(contents), "offered", len(out))
	return out, nil
}
