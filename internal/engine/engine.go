// Package engine implements the snapshot-set operations: snapshot, check,
// remove, revert, extend, list, mount and umount. Every operation reports
// the Result contract; verify-only runs validate without mutating, and
// check-mode reports the commands that would run.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"snaplvd/internal/lvm"
	"snaplvd/internal/mountinfo"
	"snaplvd/internal/snapset"
)

const devPrefix = "/dev"

// Flags select the execution mode of an operation.
type Flags struct {
	// VerifyOnly validates the expected post-state instead of operating.
	VerifyOnly bool `json:"verify_only"`
	// CheckMode reports the commands that would run without running them.
	CheckMode bool `json:"check_mode"`
}

type Engine struct {
	lvm lvm.Manager
	mnt mountinfo.Mounter
	log zerolog.Logger
}

func New(log zerolog.Logger, manager lvm.Manager, mounter mountinfo.Mounter) *Engine {
	return &Engine{
		lvm: manager,
		mnt: mounter,
		log: log.With().Str("component", "engine").Logger(),
	}
}

// Actions supported by Run.
const (
	ActionSnapshot = "snapshot"
	ActionCheck    = "check"
	ActionRemove   = "remove"
	ActionRevert   = "revert"
	ActionExtend   = "extend"
	ActionList     = "list"
	ActionMount    = "mount"
	ActionUmount   = "umount"
)

// Run dispatches an action by name.
func (e *Engine) Run(ctx context.Context, action string, set snapset.Set, flags Flags) Result {
	e.log.Info().Str("action", action).Str("set", set.Name).
		Bool("verify_only", flags.VerifyOnly).Bool("check_mode", flags.CheckMode).
		Msg("run")
	if action != ActionList {
		expanded, err := e.expand(ctx, set)
		if err != nil {
			return fail(ErrCommandFailed, err.Error())
		}
		set = expanded
	}
	switch action {
	case ActionSnapshot:
		return e.Snapshot(ctx, set, flags)
	case ActionCheck:
		return e.Check(ctx, set, flags)
	case ActionRemove:
		return e.Remove(ctx, set, flags)
	case ActionRevert:
		return e.Revert(ctx, set, flags)
	case ActionExtend:
		return e.Extend(ctx, set, flags)
	case ActionList:
		return e.List(ctx, set)
	case ActionMount:
		return e.Mount(ctx, set, flags)
	case ActionUmount:
		return e.Umount(ctx, set, flags)
	default:
		return fail(ErrInvalidAction, "unknown action: "+action)
	}
}

// expand replaces volumes naming only a VG with one volume per logical
// volume in that group. Snapshots and thin pools are never sources. A
// volume whose VG is unknown is kept so the prechecks report it.
func (e *Engine) expand(ctx context.Context, set snapset.Set) (snapset.Set, error) {
	hasPattern := false
	for _, vol := range set.Volumes {
		if vol.LV == "" {
			hasPattern = true
			break
		}
	}
	if !hasPattern {
		return set, nil
	}
	report, err := e.lvm.FullReport(ctx)
	if err != nil {
		return set, err
	}
	out := snapset.Set{Name: set.Name}
	for _, vol := range set.Volumes {
		if vol.LV != "" {
			out.Volumes = append(out.Volumes, vol)
			continue
		}
		group := report.VG(vol.VG)
		if group == nil {
			out.Volumes = append(out.Volumes, vol)
			continue
		}
		for _, volume := range group.LVs {
			if lvm.IsSnapshotAttr(volume.Attrs) || lvm.IsThinPoolAttr(volume.Attrs) {
				continue
			}
			concrete := vol
			concrete.Name = volume.Name
			concrete.LV = volume.Name
			out.Volumes = append(out.Volumes, concrete)
		}
	}
	return out, nil
}

// verifySourcesExist confirms every source VG and LV in the set is present.
func (e *Engine) verifySourcesExist(ctx context.Context, set snapset.Set) Result {
	for _, vol := range set.Volumes {
		vgExists, lvExists, err := e.lvm.LVExists(ctx, vol.VG, vol.LV)
		if err != nil {
			return fail(ErrCommandFailed, "failed to get status for source "+vol.VG+"/"+vol.LV+": "+err.Error())
		}
		if !vgExists {
			return fail(ErrSourceMissing, "source volume group does not exist: "+vol.VG)
		}
		if vol.LV != "" && !lvExists {
			return fail(ErrSourceMissing, "source logical volume does not exist: "+vol.VG+"/"+vol.LV)
		}
	}
	return ok(false)
}

// verifyTargetsAbsent confirms no snapshot target name is taken yet.
func (e *Engine) verifyTargetsAbsent(ctx context.Context, set snapset.Set) Result {
	for _, vol := range set.Volumes {
		name := snapset.SnapshotName(vol.LV, set.Name)
		_, lvExists, err := e.lvm.LVExists(ctx, vol.VG, name)
		if err != nil {
			return fail(ErrCommandFailed, "could not determine if snapshot exists: "+vol.VG+"/"+name)
		}
		if !lvExists {
			continue
		}
		attrs, err := e.lvm.Attributes(ctx, vol.VG, name)
		if err == nil && lvm.IsSnapshotAttr(attrs) {
			return fail(ErrAlreadyExists, "snapshot already exists: "+vol.VG+"/"+name)
		}
		return fail(ErrNameConflict, "volume exists that matches the pattern: "+vol.VG+"/"+name)
	}
	return ok(false)
}

// verifyNames confirms every snapshot name stays within the LVM limit.
func verifyNames(set snapset.Set) Result {
	for _, vol := range set.Volumes {
		if err := snapset.CheckName(vol.LV, set.Name); err != nil {
			return fail(ErrNameTooLong, err.Error())
		}
		if err := snapset.CheckPercent(vol.PercentSpaceRequired); err != nil {
			return fail(ErrInvalidParams, err.Error())
		}
	}
	return ok(false)
}

// spaceState indexes the full report for sizing decisions.
type spaceState struct {
	report *lvm.Report
}

func (e *Engine) currentSpaceState(ctx context.Context) (spaceState, error) {
	report, err := e.lvm.FullReport(ctx)
	if err != nil {
		return spaceState{}, err
	}
	return spaceState{report: report}, nil
}

// required returns the snapshot size needed for vg/lv at the given percent.
func (s spaceState) required(vg, lv string, percent int) (int64, error) {
	group := s.report.VG(vg)
	if group == nil {
		return 0, fmt.Errorf("volume group not in report: %s", vg)
	}
	volume := group.LV(lv)
	if volume == nil {
		return 0, fmt.Errorf("logical volume not in report: %s/%s", vg, lv)
	}
	return snapset.RequiredSize(volume.Size, percent, group.ExtentSize), nil
}

// checkSpace sums the per-VG snapshot sizes the set needs and compares them
// against free space.
func (e *Engine) checkSpace(ctx context.Context, set snapset.Set, state spaceState) Result {
	requested := map[string]int64{}
	for _, vol := range set.Volumes {
		size, err := state.required(vol.VG, vol.LV, vol.PercentSpaceRequired)
		if err != nil {
			return fail(ErrCommandFailed, err.Error())
		}
		requested[vol.VG] += size
	}
	for vg, total := range requested {
		group := state.report.VG(vg)
		e.log.Debug().Str("vg", vg).Int64("requested", total).Int64("free", group.Free).Msg("space check")
		if total > group.Free {
			return fail(ErrInsufficientSpace, "insufficient space for snapshots in: "+vg)
		}
	}
	return ok(false)
}

// precheck runs every validation the snapshot action needs, in order:
// sources present, targets absent, names valid, space sufficient.
func (e *Engine) precheck(ctx context.Context, set snapset.Set) (spaceState, Result) {
	if res := e.verifySourcesExist(ctx, set); res.Code != StatusOK {
		return spaceState{}, res
	}
	if res := e.verifyTargetsAbsent(ctx, set); res.Code != StatusOK {
		return spaceState{}, res
	}
	if res := verifyNames(set); res.Code != StatusOK {
		return spaceState{}, res
	}
	state, err := e.currentSpaceState(ctx)
	if err != nil {
		return spaceState{}, fail(ErrCommandFailed, err.Error())
	}
	if res := e.checkSpace(ctx, set, state); res.Code != StatusOK {
		return spaceState{}, res
	}
	return state, ok(false)
}

// isSnapshot resolves the attr check, mapping not-found to false.
func (e *Engine) isSnapshot(ctx context.Context, vg, lv string) (bool, error) {
	attrs, err := e.lvm.Attributes(ctx, vg, lv)
	if errors.Is(err, lvm.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return lvm.IsSnapshotAttr(attrs), nil
}
