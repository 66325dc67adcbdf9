package health

import (
	"runtime"
	"testing"
	"time"
)

func TestCollect(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(90*time.Second + 300*time.Millisecond)

	s := Collect(Options{Provider: "openai", Model: "gpt-4o", StartedAt: start}, now)
	if s.Status != "healthy" || s.Provider != "openai" || s.Model != "gpt-4o" {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.Uptime != "1m30s" {
		t.Fatalf("Uptime = %q, want 1m30s", s.Uptime)
	}
	if s.Timestamp != "2026-03-01T10:01:30Z" {
		t.Fatalf("Timestamp = %q", s.Timestamp)
	}
	if s.Goroutines <= 0 || s.Runtime.Version != runtime.Version() {
		t.Fatalf("runtime info = %+v goroutines=%d", s.Runtime, s.Goroutines)
	}
}

func TestCollectWithoutStart(t *testing.T) {
	if s := Collect(Options{}, time.Now()); s.Uptime != "" {
		t.Fatalf("Uptime = %q, want empty", s.Uptime)
	}
}
