package lvm

import (
	"context"
	"errors"
)

// lvs exits with 5 when the requested VG or LV does not exist.
const notFoundCode = 5

var (
	ErrNotFound      = errors.New("volume not found")
	ErrAlreadyExists = errors.New("volume already exists")
)

// Manager is the surface the snapshot engine needs from LVM. The real
// implementation shells out to the lvm tools; tests use the fake.
type Manager interface {
	// FullReport returns the current VG/LV state of the host.
	FullReport(ctx context.Context) (*Report, error)

	// LVExists checks the VG and, when lv is non-empty, the LV within it.
	LVExists(ctx context.Context, vg, lv string) (vgExists, lvExists bool, err error)

	// Attributes returns the lv_attr string for vg/lv, or ErrNotFound.
	Attributes(ctx context.Context, vg, lv string) (string, error)

	// CreateSnapshot runs lvcreate -s for vg/lv with the given size in bytes.
	CreateSnapshot(ctx context.Context, vg, lv, name string, sizeBytes int64, dryRun bool) (string, error)

	// RemoveLV runs lvremove -y for vg/lv.
	RemoveLV(ctx context.Context, vg, lv string, dryRun bool) (string, error)

	// MergeSnapshot runs lvconvert --merge for vg/lv, reverting the origin.
	MergeSnapshot(ctx context.Context, vg, lv string, dryRun bool) (string, error)

	// ExtendLV runs lvextend to grow vg/lv to sizeBytes.
	ExtendLV(ctx context.Context, vg, lv string, sizeBytes int64, dryRun bool) (string, error)
}
