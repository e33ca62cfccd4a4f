package snapset

// MinSnapshotSize is the smallest COW store LVM will accept (512 MiB).
const MinSnapshotSize = 512 * 1024 * 1024

// PercentOf returns percent% of value, rounded up to a whole byte.
func PercentOf(percent int, value int64) int64 {
	p := int64(percent)
	return (value*p + 99) / 100
}

// roundUp rounds n up to the next multiple of step.
func roundUp(n, step int64) int64 {
	if step <= 0 {
		return n
	}
	if rem := n % step; rem != 0 {
		return n + step - rem
	}
	return n
}

// RequiredSize is the snapshot size for an LV: the requested percentage of
// the LV, aligned up to the VG extent size, floored at MinSnapshotSize.
func RequiredSize(lvSize int64, percent int, extentSize int64) int64 {
	required := roundUp(PercentOf(percent, lvSize), extentSize)
	if required < MinSnapshotSize {
		return MinSnapshotSize
	}
	return required
}
