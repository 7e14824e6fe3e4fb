package runstore

import (
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore()
	s.Create(&Run{ID: "run-1", OrderKey: "1029", OrderID: "gid-1", Status: StatusQueued})

	run, ok := s.Get("run-1")
	if !ok {
		t.Fatal("Get should find created run")
	}
	if run.OrderKey != "1029" {
		t.Errorf("OrderKey = %s, want 1029", run.OrderKey)
	}
	if run.Status != StatusQueued {
		t.Errorf("Status = %s, want queued", run.Status)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on create")
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Get should report missing run")
	}
}

func TestStore_UpdateStatusAndLogs(t *testing.T) {
	s := NewStore()
	s.Create(&Run{ID: "run-1", OrderKey: "1029", Status: StatusQueued})

	s.UpdateStatus("run-1", StatusWatching)
	s.AddLog("run-1", "info", "thread resolved")
	s.RecordDelivery("run-1")
	s.RecordDelivery("run-1")

	run, _ := s.Get("run-1")
	if run.Status != StatusWatching {
		t.Errorf("Status = %s, want watching", run.Status)
	}
	if len(run.Logs) != 1 || run.Logs[0].Message != "thread resolved" {
		t.Errorf("Logs = %+v, want single entry", run.Logs)
	}
	if run.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", run.Delivered)
	}

	// Updates on unknown ids are no-ops
	s.UpdateStatus("missing", StatusDone)
	s.AddLog("missing", "info", "ignored")
	s.RecordDelivery("missing")
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := NewStore()
	s.Create(&Run{ID: "run-1", OrderKey: "1"})
	time.Sleep(2 * time.Millisecond)
	s.Create(&Run{ID: "run-2", OrderKey: "2"})

	runs := s.List()
	if len(runs) != 2 {
		t.Fatalf("List returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("first run = %s, want run-2 (newest first)", runs[0].ID)
	}
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s := NewStore()
	s.Create(&Run{ID: "run-1", OrderKey: "1029", Status: StatusQueued})

	runs := s.List()
	runs[0].Status = StatusDone

	run, _ := s.Get("run-1")
	if run.Status != StatusQueued {
		t.Error("mutating a listed run should not affect the store")
	}
}
