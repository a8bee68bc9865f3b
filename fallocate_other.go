//go:build !linux && !darwin

package longsort

import "os"

// preallocate sizes file to size bytes. Blocks are not reserved on this
// platform, so a full disk surfaces as a fault during mapped writes.
func preallocate(file *os.File, size int64) error {
	return file.Truncate(size)
}
