package ratelimit

import (
	"testing"
	"time"
)

func TestAllowRefills(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests rejected")
	}
	if l.Allow("a") {
		t.Error("third request allowed")
	}
	if !l.Allow("b") {
		t.Error("keys are not independent")
	}
	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Error("bucket did not refill")
	}
}

func TestEvict(t *testing.T) {
	l := New(5, time.Second)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(3 * time.Second)
	l.Allow("b")
	l.evict()
	if l.Len() != 1 {
		t.Errorf("buckets = %d, want 1", l.Len())
	}
}
