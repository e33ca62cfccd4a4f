package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"snaplvd/internal/lvm"
	"snaplvd/internal/mountinfo"
	"snaplvd/internal/snapset"
)

// Snapshot creates one snapshot per volume in the set. The full precheck
// runs in every mode, VerifyOnly included, so a set that cannot be
// snapshotted reports why. A set whose snapshots already exist is success,
// not an error. With CheckMode the lvcreate commands are reported, not run.
func (e *Engine) Snapshot(ctx context.Context, set snapset.Set, flags Flags) Result {
	state, res := e.precheck(ctx, set)
	if res.Code == ErrAlreadyExists {
		return Result{Code: StatusOK, Message: res.Message}
	}
	if res.Code != StatusOK {
		return res
	}
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		size, err := state.required(vol.VG, vol.LV, vol.PercentSpaceRequired)
		if err != nil {
			return failChanged(ErrCommandFailed, err.Error(), changed)
		}
		out, err := e.lvm.CreateSnapshot(ctx, vol.VG, vol.LV, name, size, flags.CheckMode)
		if errors.Is(err, lvm.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return failChanged(ErrCommandFailed,
				"failed to create snapshot "+vol.VG+"/"+name+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("vg", vol.VG).Str("lv", vol.LV).Str("snapshot", name).
			Int64("size", size).Msg("snapshot created")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}

// verifySnapshotsExist confirms every snapshot in the set exists and is a
// snapshot volume.
func (e *Engine) verifySnapshotsExist(ctx context.Context, set snapset.Set) Result {
	if res := e.verifySourcesExist(ctx, set); res.Code != StatusOK {
		return res
	}
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		isSnap, err := e.isSnapshot(ctx, vol.VG, name)
		if err != nil {
			return fail(ErrCommandFailed, err.Error())
		}
		if !isSnap {
			return fail(ErrVerifyFailed, "snapshot not found for source: "+vol.VG+"/"+vol.LV)
		}
	}
	return ok(false)
}

// Check validates that the set could be snapshotted (or, with VerifyOnly,
// that the snapshots already exist). It never changes anything.
func (e *Engine) Check(ctx context.Context, set snapset.Set, flags Flags) Result {
	if flags.VerifyOnly {
		return e.verifySnapshotsExist(ctx, set)
	}
	_, res := e.precheck(ctx, set)
	if res.Code != StatusOK {
		return res
	}
	return ok(false)
}

// Remove deletes the set's snapshots. A first pass rejects in-use volumes
// so the removal either happens for the whole set or not at all. Missing
// snapshots are fine; removal is idempotent.
func (e *Engine) Remove(ctx context.Context, set snapset.Set, flags Flags) Result {
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		attrs, err := e.lvm.Attributes(ctx, vol.VG, name)
		if errors.Is(err, lvm.ErrNotFound) {
			continue
		}
		if err != nil {
			return fail(ErrCommandFailed, err.Error())
		}
		if !lvm.IsSnapshotAttr(attrs) {
			return fail(ErrNotSnapshot, "volume is not a snapshot: "+vol.VG+"/"+name)
		}
		if lvm.IsOpenAttr(attrs) {
			return fail(ErrInUse, "volume is in use: "+vol.VG+"/"+name)
		}
	}
	if flags.VerifyOnly {
		for _, vol := range set.Volumes {
			name := snapset.SnapshotName(vol.LV, set.Name)
			_, lvExists, err := e.lvm.LVExists(ctx, vol.VG, name)
			if err != nil {
				return fail(ErrCommandFailed, err.Error())
			}
			if lvExists {
				return fail(ErrVerifyFailed, "volume exists that matches the pattern: "+vol.VG+"/"+name)
			}
		}
		return ok(false)
	}
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		_, lvExists, err := e.lvm.LVExists(ctx, vol.VG, name)
		if err != nil {
			return failChanged(ErrCommandFailed, err.Error(), changed)
		}
		if !lvExists {
			continue
		}
		out, err := e.lvm.RemoveLV(ctx, vol.VG, name, flags.CheckMode)
		if err != nil {
			return failChanged(ErrCommandFailed,
				"failed to remove snapshot "+vol.VG+"/"+name+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("vg", vol.VG).Str("snapshot", name).Msg("snapshot removed")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}

// Revert merges each snapshot back into its origin. Volumes whose snapshot
// is already gone are skipped so a partially merged set can be retried.
func (e *Engine) Revert(ctx context.Context, set snapset.Set, flags Flags) Result {
	if flags.VerifyOnly {
		for _, vol := range set.Volumes {
			name := snapset.SnapshotName(vol.LV, set.Name)
			_, lvExists, err := e.lvm.LVExists(ctx, vol.VG, name)
			if err != nil {
				return fail(ErrCommandFailed, err.Error())
			}
			if lvExists {
				return fail(ErrVerifyFailed, "snapshot still present: "+vol.VG+"/"+name)
			}
		}
		return ok(false)
	}
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		attrs, err := e.lvm.Attributes(ctx, vol.VG, name)
		if errors.Is(err, lvm.ErrNotFound) {
			continue
		}
		if err != nil {
			return failChanged(ErrCommandFailed, err.Error(), changed)
		}
		if !lvm.IsSnapshotAttr(attrs) {
			return failChanged(ErrNotSnapshot, "volume is not a snapshot: "+vol.VG+"/"+name, changed)
		}
		out, err := e.lvm.MergeSnapshot(ctx, vol.VG, name, flags.CheckMode)
		if err != nil {
			return failChanged(ErrCommandFailed,
				"failed to revert "+vol.VG+"/"+vol.LV+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("vg", vol.VG).Str("lv", vol.LV).Str("snapshot", name).Msg("snapshot merged")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}

// Extend grows each snapshot to the size its percent_space_required asks
// for now. Snapshots already at or above the target are left alone.
func (e *Engine) Extend(ctx context.Context, set snapset.Set, flags Flags) Result {
	state, err := e.currentSpaceState(ctx)
	if err != nil {
		return fail(ErrCommandFailed, err.Error())
	}
	if flags.VerifyOnly {
		for _, vol := range set.Volumes {
			name := snapset.SnapshotName(vol.LV, set.Name)
			res := e.verifyExtended(state, vol, name)
			if res.Code != StatusOK {
				return res
			}
		}
		return ok(false)
	}
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		group := state.report.VG(vol.VG)
		if group == nil {
			return failChanged(ErrSourceMissing, "source volume group does not exist: "+vol.VG, changed)
		}
		snap := group.LV(name)
		if snap == nil {
			return failChanged(ErrSnapshotMissing, "snapshot not found: "+vol.VG+"/"+name, changed)
		}
		target, err := state.required(vol.VG, vol.LV, vol.PercentSpaceRequired)
		if err != nil {
			return failChanged(ErrCommandFailed, err.Error(), changed)
		}
		if snap.Size >= target {
			continue
		}
		out, err := e.lvm.ExtendLV(ctx, vol.VG, name, target, flags.CheckMode)
		if err != nil {
			return failChanged(ErrCommandFailed,
				"failed to extend snapshot "+vol.VG+"/"+name+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("vg", vol.VG).Str("snapshot", name).Int64("size", target).Msg("snapshot extended")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}

func (e *Engine) verifyExtended(state spaceState, vol snapset.Volume, name string) Result {
	group := state.report.VG(vol.VG)
	if group == nil {
		return fail(ErrSourceMissing, "source volume group does not exist: "+vol.VG)
	}
	snap := group.LV(name)
	if snap == nil {
		return fail(ErrSnapshotMissing, "snapshot not found: "+vol.VG+"/"+name)
	}
	target, err := state.required(vol.VG, vol.LV, vol.PercentSpaceRequired)
	if err != nil {
		return fail(ErrCommandFailed, err.Error())
	}
	if snap.Size < target {
		return fail(ErrVerifyFailed, "snapshot smaller than required size: "+vol.VG+"/"+name)
	}
	return ok(false)
}

// ListedVolume is one row of the List report.
type ListedVolume struct {
	VG          string                 `json:"vg"`
	LV          string                 `json:"lv"`
	Path        string                 `json:"path"`
	Size        int64                  `json:"size"`
	Origin      string                 `json:"origin,omitempty"`
	Snapshot    bool                   `json:"snapshot"`
	DataPercent string                 `json:"data_percent,omitempty"`
	Mounts      []mountinfo.MountPoint `json:"mounts,omitempty"`
}

// List reports every snapshot belonging to the set, or every LV when the
// set has no volumes, with the current mounts of each device.
func (e *Engine) List(ctx context.Context, set snapset.Set) Result {
	report, err := e.lvm.FullReport(ctx)
	if err != nil {
		return fail(ErrCommandFailed, err.Error())
	}
	var rows []ListedVolume
	for i := range report.VGs {
		group := &report.VGs[i]
		for _, volume := range group.LVs {
			if set.Name != "" && !strings.HasSuffix(volume.Name, "_"+set.Name) {
				continue
			}
			row := ListedVolume{
				VG:          group.Name,
				LV:          volume.Name,
				Path:        volume.Path,
				Size:        volume.Size,
				Origin:      volume.Origin,
				Snapshot:    lvm.IsSnapshotAttr(volume.Attrs),
				DataPercent: volume.DataPercent,
			}
			if row.Path != "" {
				mounts, err := e.mnt.Points(ctx, row.Path)
				if err == nil {
					row.Mounts = mounts
				}
			}
			rows = append(rows, row)
		}
	}
	r := ok(false)
	r.Data = rows
	return r
}

// Mount mounts each snapshot (or its origin with mount_origin) at the
// volume's mountpoint. Already-mounted targets are accepted.
func (e *Engine) Mount(ctx context.Context, set snapset.Set, flags Flags) Result {
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		if vol.Mountpoint == "" {
			return failChanged(ErrInvalidParams, "mountpoint required for mount: "+vol.VG+"/"+vol.LV, changed)
		}
		lvName := vol.LV
		if !vol.MountOrigin {
			lvName = snapset.SnapshotName(vol.LV, set.Name)
		}
		_, lvExists, err := e.lvm.LVExists(ctx, vol.VG, lvName)
		if err != nil {
			return failChanged(ErrCommandFailed, err.Error(), changed)
		}
		if !lvExists {
			return failChanged(ErrSnapshotMissing, "volume not found: "+vol.VG+"/"+lvName, changed)
		}
		source := filepath.Join(devPrefix, vol.VG, lvName)
		if flags.VerifyOnly {
			mounts, err := e.mnt.Points(ctx, vol.Mountpoint)
			if err != nil {
				return fail(ErrCommandFailed, err.Error())
			}
			if len(mounts) == 0 {
				return fail(ErrVerifyFailed, "volume not mounted: "+vol.Mountpoint)
			}
			continue
		}
		out, err := e.mnt.Mount(ctx, source, vol.Mountpoint, vol.FSType, vol.Options,
			vol.MountpointCreate, flags.CheckMode)
		if errors.Is(err, mountinfo.ErrAlreadyMounted) {
			continue
		}
		if err != nil {
			return failChanged(ErrMountFailed,
				"failed to mount "+source+" on "+vol.Mountpoint+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("source", source).Str("target", vol.Mountpoint).Msg("mounted")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}

// Umount unmounts each volume's mountpoint. A target that is already
// unmounted is accepted.
func (e *Engine) Umount(ctx context.Context, set snapset.Set, flags Flags) Result {
	changed := false
	var messages []string
	for _, vol := range set.Volumes {
		if vol.Mountpoint == "" {
			return failChanged(ErrInvalidParams, "mountpoint required for umount: "+vol.VG+"/"+vol.LV, changed)
		}
		if flags.VerifyOnly {
			mounts, err := e.mnt.Points(ctx, vol.Mountpoint)
			if err != nil {
				return fail(ErrCommandFailed, err.Error())
			}
			if len(mounts) > 0 {
				return fail(ErrVerifyFailed, "volume still mounted: "+vol.Mountpoint)
			}
			continue
		}
		out, err := e.mnt.Umount(ctx, vol.Mountpoint, vol.AllTargets, flags.CheckMode)
		if errors.Is(err, mountinfo.ErrNotMounted) {
			continue
		}
		if err != nil {
			return failChanged(ErrUmountFailed,
				"failed to unmount "+vol.Mountpoint+": "+err.Error(), changed)
		}
		changed = true
		if out != "" {
			messages = append(messages, out)
		}
		e.log.Info().Str("target", vol.Mountpoint).Msg("unmounted")
	}
	r := ok(changed)
	r.Message = strings.Join(messages, "\n")
	return r
}
