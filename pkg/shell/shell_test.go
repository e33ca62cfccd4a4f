package shell

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutputAndCode(t *testing.T) {
	res, err := Run(context.Background(), 5*time.Second, "sh", "-c", "echo out; echo err >&2; exit 3")
	if err == nil {
		t.Fatalf("expected error for non-zero exit")
	}
	if res.Code != 3 {
		t.Fatalf("code = %d, want 3", res.Code)
	}
	if strings.TrimSpace(string(res.Stdout)) != "out" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(string(res.Stderr)) != "err" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	_, err := Run(context.Background(), 50*time.Millisecond, "sleep", "5")
	if err != ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("lvcreate", "-s", "-n", "lv1_snap", "vg0/lv1")
	if got != "lvcreate -s -n lv1_snap vg0/lv1" {
		t.Fatalf("got %q", got)
	}
}
