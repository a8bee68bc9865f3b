//go:build !linux

package budget

// physicalMemory is unknown on non-Linux platforms; Available falls back to
// a fixed figure.
func physicalMemory() int64 {
	return 0
}

// platformMapCeiling has no portable source outside Linux.
func platformMapCeiling() int {
	return 0
}
