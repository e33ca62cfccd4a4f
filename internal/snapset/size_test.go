package snapset

import "testing"

func TestRequiredSizeFloorsAtMinimum(t *testing.T) {
	// 20% of 1 GiB is well under the 512 MiB floor
	got := RequiredSize(1<<30, 20, 4<<20)
	if got != MinSnapshotSize {
		t.Fatalf("got %d, want %d", got, MinSnapshotSize)
	}
}

func TestRequiredSizeRoundsToExtent(t *testing.T) {
	// 50% of 1.5 GiB = 768 MiB, already extent aligned
	got := RequiredSize(1610612736, 50, 4<<20)
	if got != 805306368 {
		t.Fatalf("aligned: got %d", got)
	}
	// unaligned result must round up to the next extent
	got = RequiredSize(1610612737, 50, 4<<20)
	if got != 805306368+4<<20 {
		t.Fatalf("unaligned: got %d", got)
	}
	if got%(4<<20) != 0 {
		t.Fatalf("not extent aligned: %d", got)
	}
}

func TestPercentOfCeils(t *testing.T) {
	if got := PercentOf(50, 101); got != 51 {
		t.Fatalf("got %d, want 51", got)
	}
	if got := PercentOf(100, 12345); got != 12345 {
		t.Fatalf("got %d", got)
	}
}

func TestRoundUp(t *testing.T) {
	if got := roundUp(10, 4); got != 12 {
		t.Fatalf("got %d", got)
	}
	if got := roundUp(12, 4); got != 12 {
		t.Fatalf("got %d", got)
	}
	if got := roundUp(7, 0); got != 7 {
		t.Fatalf("zero step: got %d", got)
	}
}
