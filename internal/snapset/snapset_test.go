package snapset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotName(t *testing.T) {
	if got := SnapshotName("lv1", "snapset1"); got != "lv1_snapset1" {
		t.Fatalf("got %q", got)
	}
}

func TestCheckNameLimit(t *testing.T) {
	if err := CheckName("lv1", "snapset1"); err != nil {
		t.Fatalf("short name: %v", err)
	}
	long := strings.Repeat("x", 120)
	if err := CheckName(long, "snapset1"); err == nil {
		t.Fatalf("expected name length error")
	} else if !strings.Contains(err.Error(), "exceed LVM maximum") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCheckPercent(t *testing.T) {
	if err := CheckPercent(2); err != nil {
		t.Fatalf("2%%: %v", err)
	}
	if err := CheckPercent(1); err == nil {
		t.Fatalf("1%% should fail")
	}
	if err := CheckPercent(0); err == nil {
		t.Fatalf("0%% should fail")
	}
}

func TestValidate(t *testing.T) {
	s := Set{Name: "snapset1", Volumes: []Volume{{VG: "vg0", LV: "lv1", PercentSpaceRequired: 20}}}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid set: %v", err)
	}
	s.Volumes[0].PercentSpaceRequired = 1
	if err := s.Validate(); err == nil {
		t.Fatalf("percent 1 should fail")
	}
	s = Set{Name: "", Volumes: []Volume{{VG: "vg0", LV: "lv1", PercentSpaceRequired: 20}}}
	if err := s.Validate(); err == nil {
		t.Fatalf("empty name should fail")
	}
	s = Set{Name: "all", Volumes: []Volume{{VG: "vg0", PercentSpaceRequired: 20}}}
	if err := s.Validate(); err != nil {
		t.Fatalf("vg-only volume: %v", err)
	}
	s = Set{Name: "all", Volumes: []Volume{{LV: "lv1", PercentSpaceRequired: 20}}}
	if err := s.Validate(); err == nil {
		t.Fatalf("volume without vg should fail")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	data := "name: nightly\nvolumes:\n  - vg: vg0\n    lv: data\n    percent_space_required: 15\n"
	if err := os.WriteFile(filepath.Join(dir, "nightly.yaml"), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	// non-yaml files are ignored
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	sets, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(sets) != 1 || sets[0].Name != "nightly" {
		t.Fatalf("unexpected sets: %+v", sets)
	}
	if sets[0].Volumes[0].PercentSpaceRequired != 15 {
		t.Fatalf("volume: %+v", sets[0].Volumes[0])
	}
}

func TestLoadDirMissing(t *testing.T) {
	sets, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil || sets != nil {
		t.Fatalf("missing dir: %v %v", sets, err)
	}
}

func TestValidateJSON(t *testing.T) {
	good := `{"name":"snapset1","volumes":[{"vg":"vg0","lv":"lv1","percent_space_required":20}]}`
	if err := ValidateJSON([]byte(good)); err != nil {
		t.Fatalf("good body: %v", err)
	}
	missing := `{"name":"snapset1","volumes":[{"vg":"vg0","lv":"lv1"}]}`
	if err := ValidateJSON([]byte(missing)); err == nil {
		t.Fatalf("missing percent should fail")
	}
	low := `{"name":"snapset1","volumes":[{"vg":"vg0","lv":"lv1","percent_space_required":1}]}`
	if err := ValidateJSON([]byte(low)); err == nil {
		t.Fatalf("percent below minimum should fail")
	}
	empty := `{"name":"snapset1","volumes":[]}`
	if err := ValidateJSON([]byte(empty)); err == nil {
		t.Fatalf("empty volumes should fail")
	}
}
