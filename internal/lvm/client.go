package lvm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"snaplvd/pkg/shell"
)

// Client talks to the lvm2 command line tools.
type Client struct {
	log     zerolog.Logger
	timeout time.Duration
}

func NewClient(log zerolog.Logger, timeout time.Duration) *Client {
	return &Client{
		log:     log.With().Str("component", "lvm").Logger(),
		timeout: timeout,
	}
}

var fullReportArgs = []string{
	"fullreport",
	"--units", "B",
	"--nosuffix",
	"--configreport", "vg",
	"-o", "vg_name,vg_uuid,vg_size,vg_free,vg_extent_size",
	"--configreport", "lv",
	"-o", "lv_uuid,lv_name,lv_full_name,lv_path,lv_size,origin,origin_size,pool_lv,lv_tags,lv_attr,vg_name,data_percent,metadata_percent",
	"--configreport", "pv",
	"-o", "pv_name",
	"--reportformat", "json",
}

func (c *Client) FullReport(ctx context.Context) (*Report, error) {
	res, err := shell.Run(ctx, c.timeout, "lvm", fullReportArgs...)
	if err != nil {
		c.log.Error().Int("code", res.Code).Str("stderr", string(res.Stderr)).Msg("fullreport failed")
		return nil, fmt.Errorf("lvm fullreport exited with code %d: %s", res.Code, res.Stderr)
	}
	report, err := parseFullReport(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("lvm fullreport decode failed: %w", err)
	}
	return report, nil
}

func (c *Client) LVExists(ctx context.Context, vg, lv string) (bool, bool, error) {
	if vg == "" {
		return false, false, nil
	}
	res, _ := shell.Run(ctx, c.timeout, "lvs", vg)
	vgExists := res.Code == 0
	if lv == "" {
		return vgExists, false, nil
	}
	res, _ = shell.Run(ctx, c.timeout, "lvs", vg+"/"+lv)
	return vgExists, res.Code == 0, nil
}

func (c *Client) Attributes(ctx context.Context, vg, lv string) (string, error) {
	res, err := shell.Run(ctx, c.timeout, "lvs", "--reportformat", "json", vg+"/"+lv)
	if res.Code == notFoundCode {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lvs failed for %s/%s with code %d: %s", vg, lv, res.Code, res.Stderr)
	}

	var report struct {
		Report []struct {
			LV []struct {
				Attrs string `json:"lv_attr"`
			} `json:"lv"`
		} `json:"report"`
	}
	if err := json.Unmarshal(res.Stdout, &report); err != nil {
		return "", fmt.Errorf("lvs decode failed: %w", err)
	}
	if len(report.Report) != 1 || len(report.Report[0].LV) != 1 {
		return "", fmt.Errorf("lvs returned an unexpected number of rows for %s/%s", vg, lv)
	}
	attrs := report.Report[0].LV[0].Attrs
	if attrs == "" {
		return "", fmt.Errorf("lvs returned empty attributes for %s/%s", vg, lv)
	}
	return attrs, nil
}

func (c *Client) CreateSnapshot(ctx context.Context, vg, lv, name string, sizeBytes int64, dryRun bool) (string, error) {
	args := []string{"-s", "-n", name, "-L", strconv.FormatInt(sizeBytes, 10) + "B", vg + "/" + lv}
	return c.mutate(ctx, "lvcreate", args, dryRun)
}

func (c *Client) RemoveLV(ctx context.Context, vg, lv string, dryRun bool) (string, error) {
	return c.mutate(ctx, "lvremove", []string{"-y", vg + "/" + lv}, dryRun)
}

func (c *Client) MergeSnapshot(ctx context.Context, vg, lv string, dryRun bool) (string, error) {
	return c.mutate(ctx, "lvconvert", []string{"--merge", vg + "/" + lv}, dryRun)
}

func (c *Client) ExtendLV(ctx context.Context, vg, lv string, sizeBytes int64, dryRun bool) (string, error) {
	args := []string{"-L", strconv.FormatInt(sizeBytes, 10) + "B", vg + "/" + lv}
	return c.mutate(ctx, "lvextend", args, dryRun)
}

func (c *Client) mutate(ctx context.Context, name string, args []string, dryRun bool) (string, error) {
	if dryRun {
		return "Would run command " + shell.CommandLine(name, args...), nil
	}
	c.log.Debug().Str("cmd", shell.CommandLine(name, args...)).Msg("exec")
	res, err := shell.Run(ctx, c.timeout, name, args...)
	if err != nil {
		return "", fmt.Errorf("%s failed with code %d: %s", name, res.Code, res.Stderr)
	}
	return string(res.Stdout), nil
}
