package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ping(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func TestRunWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("store", PingCheck(ping(nil), true))
	c.Register("cache", PingCheck(ping(errors.New("refused")), false))
	if got := c.Run(context.Background()); got.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", got.Status)
	}

	c.Register("store", PingCheck(ping(errors.New("refused")), true))
	got := c.Run(context.Background())
	if got.Status != StatusDown {
		t.Errorf("status = %s, want down", got.Status)
	}
	if got.Components["store"].Message != "refused" {
		t.Errorf("store = %+v", got.Components["store"])
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("cache", PingCheck(ping(errors.New("refused")), false))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("degraded code = %d, want 200", rec.Code)
	}
	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Status != StatusDegraded {
		t.Errorf("status = %s", report.Status)
	}

	c.Register("store", PingCheck(ping(errors.New("down")), true))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("down code = %d, want 503", rec.Code)
	}
}
