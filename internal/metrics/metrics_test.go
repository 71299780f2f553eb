package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionStarted()
	c.SessionStarted()
	if c.ActiveSessions() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total = %d, want 2", c.TotalSessions())
	}

	c.SessionStopped()
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalSessions())
	}
}

func TestCollector_Traffic(t *testing.T) {
	c := New()

	c.Received(1024)
	c.Sent(512)
	c.Received(100)
	c.SendFailed()

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
	if c.UnitsIn() != 2 || c.UnitsOut() != 1 {
		t.Errorf("units in/out = %d/%d, want 2/1", c.UnitsIn(), c.UnitsOut())
	}
	if c.SendFailures() != 1 {
		t.Errorf("send failures = %d", c.SendFailures())
	}
}

func TestCollector_Connections(t *testing.T) {
	c := New()
	c.Connected()
	c.Connected()
	if c.Connections() != 2 {
		t.Errorf("connections = %d, want 2", c.Connections())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	if got := c.Snapshot().LastErrorMessage; got != "second error" {
		t.Errorf("last error = %q", got)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionStarted()
	c.Received(100)
	c.Sent(50)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.SessionsActive != 1 {
		t.Errorf("snap active = %d", snap.SessionsActive)
	}
	if snap.BytesIn != 100 || snap.UnitsIn != 1 {
		t.Errorf("snap in = %d bytes / %d units", snap.BytesIn, snap.UnitsIn)
	}
	if snap.LastReceive == "" {
		t.Error("expected a last-receive timestamp")
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionStarted()
	c.Sent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 {
		t.Errorf("JSON active = %d", snap.SessionsActive)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Received(1)
				c.Sent(2)
			}
		}()
	}
	wg.Wait()
	if c.TotalBytesIn() != 8000 || c.TotalBytesOut() != 16000 {
		t.Errorf("in/out = %d/%d", c.TotalBytesIn(), c.TotalBytesOut())
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionStarted()
	c.SessionStopped()
	c.Connected()
	c.Received(100)
	c.Sent(100)
	c.SendFailed()
	c.RecordError("test")

	if c.ActiveSessions() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TotalBytesIn() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}

	snap := c.Snapshot()
	if snap.SessionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}

	j := c.JSON()
	if j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
