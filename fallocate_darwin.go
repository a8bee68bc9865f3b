//go:build darwin

package longsort

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate sizes file to size bytes and reserves its blocks with
// F_PREALLOCATE, so that writes through a shared mapping cannot hit SIGBUS
// when the disk fills.
func preallocate(file *os.File, size int64) error {
	if size > 0 {
		fst := unix.Fstore_t{
			Flags:   unix.F_ALLOCATEALL,
			Posmode: unix.F_PEOFPOSMODE,
			Length:  size,
		}
		// Best-effort: ftruncate below still sizes the file.
		_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
	}
	return unix.Ftruncate(int(file.Fd()), size)
}
