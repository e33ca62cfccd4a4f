package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"snaplvd/internal/engine"
	"snaplvd/internal/snapset"
)

type recordingRunner struct {
	mu   sync.Mutex
	runs []string
}

func (r *recordingRunner) Run(ctx context.Context, action string, set snapset.Set, flags engine.Flags) engine.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, action+":"+set.Name)
	return engine.Result{}
}

func testSet(name string) snapset.Set {
	return snapset.Set{
		Name: name,
		Volumes: []snapset.Volume{{
			Name: "home", VG: "data_vg", LV: "home", PercentSpaceRequired: 20,
		}},
	}
}

func TestAddListRemove(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "schedules.yaml")
	s := New(zerolog.Nop(), stateFile, &recordingRunner{}, nil)

	sched, err := s.Add("0 2 * * *", testSet("nightly"), true)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sched.ID == "" {
		t.Fatal("schedule has no id")
	}

	if _, err := s.Add("not a cron", testSet("weekly"), true); err == nil {
		t.Fatal("invalid cron expression accepted")
	}
	if _, err := s.Add("0 2 * * *", snapset.Set{Name: "bad"}, true); err == nil {
		t.Fatal("set without volumes accepted")
	}

	list := s.List()
	if len(list) != 1 || list[0].Set.Name != "nightly" {
		t.Fatalf("list = %+v", list)
	}

	if err := s.Remove(sched.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(sched.ID); err == nil {
		t.Fatal("removing missing schedule should fail")
	}
	if len(s.List()) != 0 {
		t.Fatal("schedule still listed after remove")
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "schedules.yaml")

	s := New(zerolog.Nop(), stateFile, &recordingRunner{}, nil)
	sched, err := s.Add("30 1 * * 0", testSet("weekly"), false)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	restarted := New(zerolog.Nop(), stateFile, &recordingRunner{}, nil)
	if err := restarted.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer restarted.Stop()

	got, found := restarted.Get(sched.ID)
	if !found {
		t.Fatal("schedule not restored")
	}
	if got.Cron != "30 1 * * 0" || got.Set.Name != "weekly" || got.Enabled {
		t.Fatalf("restored schedule = %+v", got)
	}
}

func TestFireRunsSnapshot(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "schedules.yaml")
	runner := &recordingRunner{}
	s := New(zerolog.Nop(), stateFile, runner, nil)

	sched, err := s.Add("0 3 * * *", testSet("nightly"), false)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.fire(sched.ID)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.runs) != 1 || runner.runs[0] != "snapshot:nightly" {
		t.Fatalf("runs = %v", runner.runs)
	}
	got, _ := s.Get(sched.ID)
	if got.LastRun.IsZero() {
		t.Fatal("last run not recorded")
	}
}
