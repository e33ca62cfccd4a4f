package mountinfo

import (
	"context"
	"sync"

	"snaplvd/pkg/shell"
)

// Fake is an in-memory Mounter for tests.
type Fake struct {
	mu     sync.Mutex
	Mounts []MountPoint
}

func NewFake(mounts ...MountPoint) *Fake {
	return &Fake{Mounts: mounts}
}

func (f *Fake) Points(ctx context.Context, target string) ([]MountPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MountPoint
	for _, p := range f.Mounts {
		if p.Target == target || p.Source == target {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) Mount(ctx context.Context, blockdev, mountpoint, fstype, options string, create, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Mounts {
		if p.Source == blockdev && p.Target == mountpoint {
			return "", ErrAlreadyMounted
		}
	}
	if dryRun {
		return "Would run command " + shell.CommandLine("mount", blockdev, mountpoint), nil
	}
	f.Mounts = append(f.Mounts, MountPoint{Target: mountpoint, Source: blockdev, FSType: fstype, Options: options})
	return "", nil
}

func (f *Fake) Umount(ctx context.Context, target string, allTargets, dryRun bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]MountPoint, 0, len(f.Mounts))
	removed := 0
	for _, p := range f.Mounts {
		if p.Target == target || p.Source == target {
			removed++
			if !allTargets && removed > 1 {
				kept = append(kept, p)
			}
			continue
		}
		kept = append(kept, p)
	}
	if removed == 0 {
		return "", ErrNotMounted
	}
	if dryRun {
		return "Would run command " + shell.CommandLine("umount", target), nil
	}
	f.Mounts = kept
	return "", nil
}
