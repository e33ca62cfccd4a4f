package history

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(zerolog.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Minute)
	entries := []Entry{
		{StartedAt: base, Action: "snapshot", SetName: "nightly", ReturnCode: 0, Changed: true, Duration: 120 * time.Millisecond},
		{StartedAt: base.Add(time.Second), Action: "check", SetName: "nightly", ReturnCode: 0},
		{StartedAt: base.Add(2 * time.Second), Action: "remove", SetName: "nightly", ReturnCode: 9, Errors: "volume is in use: data_vg/home_nightly"},
	}
	for _, e := range entries {
		id, err := store.Record(e)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if id == "" {
			t.Fatal("record returned empty id")
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	if got[0].Action != "remove" || got[0].ReturnCode != 9 {
		t.Fatalf("newest entry = %+v", got[0])
	}
	if got[2].Action != "snapshot" || !got[2].Changed {
		t.Fatalf("oldest entry = %+v", got[2])
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(zerolog.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		if _, err := store.Record(Entry{Action: "list", SetName: "all"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
}
