package audit

import "testing"

func TestRecordAndRecent(t *testing.T) {
	l := NewLog(8)

	l.Record(KindSyncRun, "USER-1", "first", nil)
	l.Record(KindTicketUpdate, "USER-1", "second", map[string]string{"ticket_id": "T-1"})

	entries := l.Recent(0)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Detail != "second" || entries[1].Detail != "first" {
		t.Errorf("entries not newest first: %v", entries)
	}
	if entries[0].Fields["ticket_id"] != "T-1" {
		t.Errorf("fields = %v", entries[0].Fields)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("entry missing timestamp")
	}
}

func TestRecentLimit(t *testing.T) {
	l := NewLog(8)
	for i := 0; i < 5; i++ {
		l.Record(KindSyncRun, "USER-1", "entry", nil)
	}

	if got := len(l.Recent(3)); got != 3 {
		t.Errorf("Recent(3) = %d entries", got)
	}
	if got := len(l.Recent(100)); got != 5 {
		t.Errorf("Recent(100) = %d entries, want 5", got)
	}
}

func TestRingDropsOldest(t *testing.T) {
	l := NewLog(3)
	for _, detail := range []string{"a", "b", "c", "d"} {
		l.Record(KindSyncRun, "USER-1", detail, nil)
	}

	entries := l.Recent(0)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Detail != "d" || entries[2].Detail != "b" {
		t.Errorf("ring contents wrong: %v", entries)
	}
}

func TestNewLogMinimumSize(t *testing.T) {
	l := NewLog(0)
	l.Record(KindSyncRun, "USER-1", "only", nil)
	if got := len(l.Recent(0)); got != 1 {
		t.Errorf("got %d entries, want 1", got)
	}
}
