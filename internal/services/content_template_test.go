package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/outbound-messaging-backend/internal/clients/twilio"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type fakeContentLister struct {
	contents []twilio.Content
	err      error
}

func (f fakeContentLister) ListContents(context.Context) ([]twilio.Content, error) {
	return f.contents, f.err
}

var sampleContents = []twilio.Content{
	{SID: "HX1", FriendlyName: "welcome"},
	{SID: "HX2", FriendlyName: "follow_up"},
	{SID: "HX3", FriendlyName: "survey"},
}

func TestContentTemplateFilters(t *testing.T) {
	cases := []struct {
		name    string
		filters ContentTemplateFilters
		want    []string
	}{
		{"disabled", ContentTemplateFilters{Enabled: false, Accounts: map[string][]string{"AC1": {"HX1"}}}, []string{"HX1", "HX2", "HX3"}},
		{"account absent", ContentTemplateFilters{Enabled: true, Accounts: map[string][]string{"AC2": {"HX1"}}}, []string{"HX1", "HX2", "HX3"}},
		{"account listed", ContentTemplateFilters{Enabled: true, Accounts: map[string][]string{"AC1": {"HX3", "HX1"}}}, []string{"HX1", "HX3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewContentTemplateService(logger.NewNop(), fakeContentLister{contents: sampleContents}, "AC1", tc.filters)
			got, err := svc.List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("templates: want=%v got=%+v", tc.want, got)
			}
			for i, sid := range tc.want {
				if got[i].SID != sid {
					t.Fatalf("template %d: want=%s got=%s", i, sid, got[i].SID)
				}
			}
		})
	}
}

func TestContentTemplateListError(t *testing.T) {
	boom := errors.New("content api down")
	svc := NewContentTemplateService(logger.NewNop(), fakeContentLister{err: boom}, "AC1", ContentTemplateFilters{})
	if _, err := svc.List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

func TestLoadContentTemplateFilters(t *testing.T) {
	f, err := LoadContentTemplateFilters("")
	if err != nil {
		t.Fatalf("default filters: %v", err)
	}
	if f.Enabled {
		t.Fatalf("built-in filters must be disabled")
	}

	path := filepath.Join(t.TempDir(), "filters.yaml")
	raw := "enabled: true\naccounts:\n  AC1:\n    - HX2\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err = LoadContentTemplateFilters(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !f.Allows("AC1", "HX2") || f.Allows("AC1", "HX1") || !f.Allows("AC9", "HX1") {
		t.Fatalf("unexpected filter behaviour: %+v", f)
	}

	if _, err := LoadContentTemplateFilters(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
