package lvm

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"snaplvd/pkg/shell"
)

// Fake is an in-memory Manager for tests. State is mutated the way the real
// tools would mutate the host, with free space accounted per VG.
type Fake struct {
	mu       sync.Mutex
	State    Report
	Commands []string
}

func NewFake(vgs ...VolumeGroup) *Fake {
	return &Fake{State: Report{VGs: vgs}}
}

func (f *Fake) FullReport(ctx context.Context) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := Report{VGs: make([]VolumeGroup, len(f.State.VGs))}
	for i, vg := range f.State.VGs {
		copied := vg
		copied.LVs = append([]LogicalVolume(nil), vg.LVs...)
		out.VGs[i] = copied
	}
	return &out, nil
}

func (f *Fake) LVExists(ctx context.Context, vg, lv string) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := f.State.VG(vg)
	if group == nil {
		return false, false, nil
	}
	if lv == "" {
		return true, false, nil
	}
	return true, group.LV(lv) != nil, nil
}

func (f *Fake) Attributes(ctx context.Context, vg, lv string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := f.State.VG(vg)
	if group == nil {
		return "", ErrNotFound
	}
	volume := group.LV(lv)
	if volume == nil {
		return "", ErrNotFound
	}
	return volume.Attrs, nil
}

func (f *Fake) CreateSnapshot(ctx context.Context, vg, lv, name string, sizeBytes int64, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := shell.CommandLine("lvcreate", "-s", "-n", name, "-L", strconv.FormatInt(sizeBytes, 10)+"B", vg+"/"+lv)
	if dryRun {
		return "Would run command " + line, nil
	}
	group := f.State.VG(vg)
	if group == nil || group.LV(lv) == nil {
		return "", fmt.Errorf("lvcreate failed: %s/%s not found", vg, lv)
	}
	if group.LV(name) != nil {
		return "", fmt.Errorf("lvcreate %s/%s: %w", vg, name, ErrAlreadyExists)
	}
	if sizeBytes > group.Free {
		return "", fmt.Errorf("lvcreate failed: insufficient free space in %s", vg)
	}
	group.Free -= sizeBytes
	group.LVs = append(group.LVs, LogicalVolume{
		Name:     name,
		FullName: vg + "/" + name,
		Path:     "/dev/" + vg + "/" + name,
		Size:     sizeBytes,
		Origin:   lv,
		Attrs:    "swi-a-s---",
		VGName:   vg,
	})
	f.Commands = append(f.Commands, line)
	return "", nil
}

func (f *Fake) RemoveLV(ctx context.Context, vg, lv string, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := shell.CommandLine("lvremove", "-y", vg+"/"+lv)
	if dryRun {
		return "Would run command " + line, nil
	}
	group := f.State.VG(vg)
	if group == nil {
		return "", fmt.Errorf("lvremove failed: %s not found", vg)
	}
	for i := range group.LVs {
		if group.LVs[i].Name == lv {
			group.Free += group.LVs[i].Size
			group.LVs = append(group.LVs[:i], group.LVs[i+1:]...)
			f.Commands = append(f.Commands, line)
			return "", nil
		}
	}
	return "", fmt.Errorf("lvremove failed: %s/%s not found", vg, lv)
}

func (f *Fake) MergeSnapshot(ctx context.Context, vg, lv string, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := shell.CommandLine("lvconvert", "--merge", vg+"/"+lv)
	if dryRun {
		return "Would run command " + line, nil
	}
	group := f.State.VG(vg)
	if group == nil {
		return "", fmt.Errorf("lvconvert failed: %s not found", vg)
	}
	for i := range group.LVs {
		if group.LVs[i].Name == lv {
			group.Free += group.LVs[i].Size
			group.LVs = append(group.LVs[:i], group.LVs[i+1:]...)
			f.Commands = append(f.Commands, line)
			return "Merging of volume " + vg + "/" + lv + " started.", nil
		}
	}
	return "", fmt.Errorf("lvconvert failed: %s/%s not found", vg, lv)
}

func (f *Fake) ExtendLV(ctx context.Context, vg, lv string, sizeBytes int64, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := shell.CommandLine("lvextend", "-L", strconv.FormatInt(sizeBytes, 10)+"B", vg+"/"+lv)
	if dryRun {
		return "Would run command " + line, nil
	}
	group := f.State.VG(vg)
	if group == nil {
		return "", fmt.Errorf("lvextend failed: %s not found", vg)
	}
	volume := group.LV(lv)
	if volume == nil {
		return "", fmt.Errorf("lvextend failed: %s/%s not found", vg, lv)
	}
	delta := sizeBytes - volume.Size
	if delta > group.Free {
		return "", fmt.Errorf("lvextend failed: insufficient free space in %s", vg)
	}
	group.Free -= delta
	volume.Size = sizeBytes
	f.Commands = append(f.Commands, line)
	return "", nil
}
