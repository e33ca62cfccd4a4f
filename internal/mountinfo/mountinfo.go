// Package mountinfo queries and edits the mount table for snapshot volumes,
// via findmnt, mount and umount.
package mountinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"snaplvd/pkg/shell"
)

var (
	ErrNotMounted     = errors.New("target is not mounted")
	ErrAlreadyMounted = errors.New("device already mounted on mountpoint")
)

type MountPoint struct {
	Target  string
	Source  string
	FSType  string
	Options string
}

// Mounter is the mount-table surface the engine needs.
type Mounter interface {
	// Points lists mount table entries for a device path or mountpoint.
	// An unmounted target yields an empty list, not an error.
	Points(ctx context.Context, target string) ([]MountPoint, error)

	// Mount mounts blockdev on mountpoint, creating the mountpoint first
	// when create is set. Mounting the same device on the same mountpoint
	// twice returns ErrAlreadyMounted.
	Mount(ctx context.Context, blockdev, mountpoint, fstype, options string, create, dryRun bool) (string, error)

	// Umount unmounts target, detaching every mount when allTargets is set.
	// An unmounted target returns ErrNotMounted.
	Umount(ctx context.Context, target string, allTargets, dryRun bool) (string, error)
}

// CLI runs the real mount tools.
type CLI struct {
	log     zerolog.Logger
	timeout time.Duration
}

func NewCLI(log zerolog.Logger, timeout time.Duration) *CLI {
	return &CLI{
		log:     log.With().Str("component", "mount").Logger(),
		timeout: timeout,
	}
}

// findmnt exits with 1 when the target is not in the mount table.
const notFoundCode = 1

func (c *CLI) Points(ctx context.Context, target string) ([]MountPoint, error) {
	res, err := shell.Run(ctx, c.timeout, "findmnt", target, "-P")
	if err != nil {
		if res.Code == notFoundCode {
			return nil, nil
		}
		return nil, fmt.Errorf("findmnt failed for %s with code %d: %s", target, res.Code, res.Stderr)
	}
	return parseFindmnt(string(res.Stdout)), nil
}

// parseFindmnt decodes `findmnt -P` output: one KEY="VALUE" pair list per line.
func parseFindmnt(out string) []MountPoint {
	var points []MountPoint
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := map[string]string{}
		for _, kv := range strings.Fields(line) {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			fields[parts[0]] = strings.Trim(parts[1], `"`)
		}
		if fields["TARGET"] == "" && fields["SOURCE"] == "" {
			continue
		}
		points = append(points, MountPoint{
			Target:  fields["TARGET"],
			Source:  fields["SOURCE"],
			FSType:  fields["FSTYPE"],
			Options: fields["OPTIONS"],
		})
	}
	return points
}

func (c *CLI) Mount(ctx context.Context, blockdev, mountpoint, fstype, options string, create, dryRun bool) (string, error) {
	existing, err := c.Points(ctx, mountpoint)
	if err != nil {
		return "", err
	}
	for _, p := range existing {
		if p.Source == blockdev && p.Target == mountpoint {
			return "", ErrAlreadyMounted
		}
	}

	args := []string{}
	if fstype != "" {
		args = append(args, "-t", fstype)
	}
	if options != "" {
		args = append(args, "-o", options)
	}
	args = append(args, blockdev, mountpoint)

	if dryRun {
		return "Would run command " + shell.CommandLine("mount", args...), nil
	}
	if create {
		if err := os.MkdirAll(mountpoint, 0o755); err != nil {
			return "", err
		}
	}
	c.log.Debug().Str("cmd", shell.CommandLine("mount", args...)).Msg("exec")
	res, err := shell.Run(ctx, c.timeout, "mount", args...)
	if err != nil {
		return "", errors.New(strings.TrimSpace(string(res.Stderr)))
	}
	return string(res.Stdout), nil
}

func (c *CLI) Umount(ctx context.Context, target string, allTargets, dryRun bool) (string, error) {
	existing, err := c.Points(ctx, target)
	if err != nil {
		return "", err
	}
	if len(existing) == 0 {
		return "", ErrNotMounted
	}

	args := []string{}
	if allTargets {
		args = append(args, "--all-targets")
	}
	args = append(args, target)

	if dryRun {
		return "Would run command " + shell.CommandLine("umount", args...), nil
	}
	c.log.Debug().Str("cmd", shell.CommandLine("umount", args...)).Msg("exec")
	res, err := shell.Run(ctx, c.timeout, "umount", args...)
	if err != nil {
		return "", errors.New(strings.TrimSpace(string(res.Stderr)))
	}
	return string(res.Stdout), nil
}
