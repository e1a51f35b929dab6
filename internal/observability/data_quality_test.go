package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAlerterThrottlesPerIssue(t *testing.T) {
	a := newDQAlerter("http://unused", time.Minute)
	now := time.Now()

	if !a.admit("s:i", now) {
		t.Fatalf("first alert should pass")
	}
	if a.admit("s:i", now.Add(30*time.Second)) {
		t.Fatalf("second alert inside interval should be throttled")
	}
	if !a.admit("s:other", now.Add(30*time.Second)) {
		t.Fatalf("different issue should not be throttled")
	}
	if !a.admit("s:i", now.Add(61*time.Second)) {
		t.Fatalf("alert after interval should pass")
	}
}

func TestAlerterPostsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := newDQAlerter(srv.URL, 0)
	if err := a.post(context.Background(), "thread_factory", IssueConflictUnparseable, map[string]any{"to": "x"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got["stage"] != "thread_factory" || got["issue"] != IssueConflictUnparseable {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestAlerterReportsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newDQAlerter(srv.URL, 0).post(context.Background(), "s", "i", nil); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}
