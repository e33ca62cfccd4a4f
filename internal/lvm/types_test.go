package lvm

import "testing"

const sampleFullReport = `{
  "report": [
    {
      "vg": [
        {"vg_name":"test_vg1","vg_uuid":"abc-123","vg_size":"3217031168","vg_free":"1606418432","vg_extent_size":"4194304"}
      ],
      "lv": [
        {"lv_uuid":"lv-1","lv_name":"lv1","lv_full_name":"test_vg1/lv1","lv_path":"/dev/test_vg1/lv1","lv_size":"1610612736","origin":"","origin_size":"","pool_lv":"","lv_tags":"","lv_attr":"-wi-a-----","vg_name":"test_vg1","data_percent":"","metadata_percent":""},
        {"lv_uuid":"lv-2","lv_name":"lv1_snapset1","lv_full_name":"test_vg1/lv1_snapset1","lv_path":"/dev/test_vg1/lv1_snapset1","lv_size":"536870912","origin":"lv1","origin_size":"1610612736","pool_lv":"","lv_tags":"","lv_attr":"swi-a-s---","vg_name":"test_vg1","data_percent":"0.00","metadata_percent":""}
      ],
      "pv": [
        {"pv_name":"/dev/sda"},{"pv_name":"/dev/sdb"},{"pv_name":"/dev/sdc"}
      ]
    }
  ]
}`

func TestParseFullReport(t *testing.T) {
	report, err := parseFullReport([]byte(sampleFullReport))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vg := report.VG("test_vg1")
	if vg == nil {
		t.Fatalf("test_vg1 missing")
	}
	if vg.Size != 3217031168 || vg.Free != 1606418432 {
		t.Fatalf("vg sizes: %d %d", vg.Size, vg.Free)
	}
	if vg.ExtentSize != 4194304 {
		t.Fatalf("extent size: %d", vg.ExtentSize)
	}
	if len(vg.LVs) != 2 {
		t.Fatalf("lv count: %d", len(vg.LVs))
	}
	lv := vg.LV("lv1")
	if lv == nil || lv.Size != 1610612736 {
		t.Fatalf("lv1: %+v", lv)
	}
	snap := vg.LV("lv1_snapset1")
	if snap == nil || snap.Origin != "lv1" {
		t.Fatalf("snapshot row: %+v", snap)
	}
	if !IsSnapshotAttr(snap.Attrs) {
		t.Fatalf("snapshot attr not recognized: %q", snap.Attrs)
	}
	if IsSnapshotAttr(lv.Attrs) {
		t.Fatalf("plain lv misread as snapshot: %q", lv.Attrs)
	}
}

func TestParseFullReportSkipsEmptyVG(t *testing.T) {
	report, err := parseFullReport([]byte(`{"report":[{"vg":[{}],"lv":[],"pv":[]}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(report.VGs) != 0 {
		t.Fatalf("expected empty report, got %d vgs", len(report.VGs))
	}
}

func TestInt64StringSuffix(t *testing.T) {
	var v Int64String
	if err := v.UnmarshalJSON([]byte(`"1024B"`)); err != nil || v != 1024 {
		t.Fatalf("suffix form: %v %d", nil, v)
	}
	if err := v.UnmarshalJSON([]byte(`""`)); err != nil || v != 0 {
		t.Fatalf("empty form: %d", v)
	}
}

func TestAttrHelpers(t *testing.T) {
	if !IsThinPoolAttr("twi-aotz--") {
		t.Fatalf("thin pool attr")
	}
	if !IsOpenAttr("-wi-ao----") {
		t.Fatalf("open attr")
	}
	if IsOpenAttr("-wi-a-----") {
		t.Fatalf("closed attr misread as open")
	}
}
