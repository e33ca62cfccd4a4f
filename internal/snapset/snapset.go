// Package snapset models snapshot sets: a named group of logical volumes to
// snapshot together, each with the percentage of its size to reserve for the
// copy-on-write store.
package snapset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxVolumeName is the LVM limit on volume names. Snapshot names are the
// source LV name plus the set name, so the combined length is capped here.
const MaxVolumeName = 127

type Volume struct {
	Name                 string `json:"name,omitempty" yaml:"name,omitempty"`
	VG                   string `json:"vg" yaml:"vg"`
	LV                   string `json:"lv" yaml:"lv"`
	PercentSpaceRequired int    `json:"percent_space_required" yaml:"percent_space_required"`

	// Mount parameters, used by the mount and umount actions only.
	Mountpoint       string `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
	MountpointCreate bool   `json:"mountpoint_create,omitempty" yaml:"mountpoint_create,omitempty"`
	MountOrigin      bool   `json:"mount_origin,omitempty" yaml:"mount_origin,omitempty"`
	FSType           string `json:"fstype,omitempty" yaml:"fstype,omitempty"`
	Options          string `json:"options,omitempty" yaml:"options,omitempty"`
	AllTargets       bool   `json:"all_targets,omitempty" yaml:"all_targets,omitempty"`
}

type Set struct {
	Name    string   `json:"name" yaml:"name"`
	Volumes []Volume `json:"volumes" yaml:"volumes"`
}

// SnapshotName is the target LV name for a snapshot of lv in the named set.
func SnapshotName(lv, setName string) string {
	return lv + "_" + setName
}

// CheckName verifies the snapshot name for lv stays within the LVM limit.
func CheckName(lv, setName string) error {
	if len(lv)+len(setName)+1 > MaxVolumeName {
		return fmt.Errorf("resulting snapshot name would exceed LVM maximum: %s", SnapshotName(lv, setName))
	}
	return nil
}

// CheckPercent validates a percent_space_required value.
func CheckPercent(percent int) error {
	if percent <= 1 {
		return fmt.Errorf("percent_space_required must be greater than 1: %d", percent)
	}
	return nil
}

// Validate checks the set is well formed before any LVM state is consulted.
func (s *Set) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("snapshot set requires a name")
	}
	if len(s.Volumes) == 0 {
		return fmt.Errorf("snapshot set %s has no volumes", s.Name)
	}
	for _, v := range s.Volumes {
		if v.VG == "" {
			return fmt.Errorf("snapshot set %s: volume requires a vg", s.Name)
		}
		if err := CheckPercent(v.PercentSpaceRequired); err != nil {
			return fmt.Errorf("snapshot set %s: %w", s.Name, err)
		}
		// An empty lv covers every volume in the vg; names are checked
		// after expansion in that case.
		if v.LV != "" {
			if err := CheckName(v.LV, s.Name); err != nil {
				return fmt.Errorf("snapshot set %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

// LoadFile reads one snapshot set from a YAML file.
func LoadFile(path string) (Set, error) {
	var s Set
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadDir reads every *.yaml snapshot set under dir, sorted by set name.
// A missing directory yields an empty list.
func LoadDir(dir string) ([]Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sets []Set
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		s, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}
