//go:build linux

package longsort

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate sizes file to size bytes and reserves its blocks, so that
// writes through a shared mapping cannot hit SIGBUS when the disk fills.
func preallocate(file *os.File, size int64) error {
	fd := int(file.Fd())
	if size > 0 {
		// NFS and some other filesystems reject fallocate; ftruncate alone
		// still sizes the file.
		_ = unix.Fallocate(fd, 0, 0, size)
	}
	return unix.Ftruncate(fd, size)
}
