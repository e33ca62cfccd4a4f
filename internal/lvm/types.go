package lvm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Int64String handles byte counts that lvm reports as strings, with or
// without a trailing "B".
type Int64String int64

func (i *Int64String) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSuffix(s, "B")
	if s == "" {
		*i = 0
		return nil
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*i = Int64String(value)
	return nil
}

// VolumeGroup is one VG from the full report, sizes in bytes.
type VolumeGroup struct {
	Name       string
	UUID       string
	Size       int64
	Free       int64
	ExtentSize int64
	LVs        []LogicalVolume
}

// LogicalVolume is one LV from the full report, sizes in bytes.
type LogicalVolume struct {
	Name        string
	FullName    string
	Path        string
	Size        int64
	Origin      string
	OriginSize  int64
	PoolLV      string
	Attrs       string
	VGName      string
	DataPercent string
}

// Report is the parsed state of all volume groups on the host.
type Report struct {
	VGs []VolumeGroup
}

// VG returns the named volume group, or nil.
func (r *Report) VG(name string) *VolumeGroup {
	for i := range r.VGs {
		if r.VGs[i].Name == name {
			return &r.VGs[i]
		}
	}
	return nil
}

// LV returns the named logical volume in the group, or nil.
func (vg *VolumeGroup) LV(name string) *LogicalVolume {
	for i := range vg.LVs {
		if vg.LVs[i].Name == name {
			return &vg.LVs[i]
		}
	}
	return nil
}

// lv_attr bit 0 identifies the volume type, bit 5 the device state.

// IsSnapshotAttr reports whether an lv_attr string marks a COW snapshot.
func IsSnapshotAttr(attr string) bool {
	return len(attr) > 0 && attr[0] == 's'
}

// IsThinPoolAttr reports whether an lv_attr string marks a thin pool.
func IsThinPoolAttr(attr string) bool {
	return len(attr) > 0 && attr[0] == 't'
}

// IsOpenAttr reports whether an lv_attr string marks an open device.
func IsOpenAttr(attr string) bool {
	return len(attr) > 5 && attr[5] == 'o'
}

type fullReport struct {
	Report []reportEntry `json:"report"`
}

type reportEntry struct {
	VG []rawVG `json:"vg"`
	LV []rawLV `json:"lv"`
	PV []rawPV `json:"pv"`
}

type rawVG struct {
	Name       string      `json:"vg_name"`
	UUID       string      `json:"vg_uuid"`
	Size       Int64String `json:"vg_size"`
	Free       Int64String `json:"vg_free"`
	ExtentSize Int64String `json:"vg_extent_size"`
}

type rawLV struct {
	UUID            string      `json:"lv_uuid"`
	Name            string      `json:"lv_name"`
	FullName        string      `json:"lv_full_name"`
	Path            string      `json:"lv_path"`
	Size            Int64String `json:"lv_size"`
	Origin          string      `json:"origin"`
	OriginSize      Int64String `json:"origin_size"`
	PoolLV          string      `json:"pool_lv"`
	Tags            string      `json:"lv_tags"`
	Attrs           string      `json:"lv_attr"`
	VGName          string      `json:"vg_name"`
	DataPercent     string      `json:"data_percent"`
	MetadataPercent string      `json:"metadata_percent"`
}

type rawPV struct {
	Name string `json:"pv_name"`
}

// parseFullReport decodes `lvm fullreport --reportformat json` output. The
// report carries one entry per VG, with the vg array holding a single row.
func parseFullReport(data []byte) (*Report, error) {
	var fr fullReport
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, err
	}
	out := &Report{}
	for _, entry := range fr.Report {
		if len(entry.VG) == 0 || entry.VG[0].Name == "" {
			continue
		}
		vg := entry.VG[0]
		group := VolumeGroup{
			Name:       vg.Name,
			UUID:       vg.UUID,
			Size:       int64(vg.Size),
			Free:       int64(vg.Free),
			ExtentSize: int64(vg.ExtentSize),
		}
		for _, lv := range entry.LV {
			group.LVs = append(group.LVs, LogicalVolume{
				Name:        lv.Name,
				FullName:    lv.FullName,
				Path:        lv.Path,
				Size:        int64(lv.Size),
				Origin:      lv.Origin,
				OriginSize:  int64(lv.OriginSize),
				PoolLV:      lv.PoolLV,
				Attrs:       lv.Attrs,
				VGName:      lv.VGName,
				DataPercent: lv.DataPercent,
			})
		}
		out.VGs = append(out.VGs, group)
	}
	return out, nil
}
