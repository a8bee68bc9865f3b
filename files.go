package longsort

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	sorterrors "github.com/tamirms/longsort/errors"
)

// scratchFile is the transient working copy the sort phase writes into and
// the merge rounds ping-pong with the output file.
type scratchFile struct {
	file *os.File
	path string // "" for anonymous O_TMPFILE files
	keep bool
}

// createScratch creates a scratch file of size bytes in dir.
// Tries O_TMPFILE on Linux for auto-cleanup, falls back to a regular temp
// file. keep forces a named file that cleanup leaves in place.
func createScratch(dir string, size int64, keep bool) (*scratchFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	s := &scratchFile{keep: keep}

	if !keep {
		// O_TMPFILE creates an anonymous file that is automatically deleted on close
		if f, err := openTmpFile(dir); err == nil {
			s.file = f
		}
	}
	if s.file == nil {
		f, err := os.CreateTemp(dir, "longsort-*.scratch")
		if err != nil {
			return nil, fmt.Errorf("%w: create scratch file: %w", sorterrors.ErrIO, err)
		}
		s.file = f
		s.path = f.Name()
	}

	// Pre-allocate disk blocks (prevents SIGBUS on disk full)
	if err := preallocate(s.file, size); err != nil {
		primaryErr := fmt.Errorf("%w: pre-allocate scratch file: %w", sorterrors.ErrIO, err)
		return nil, errors.Join(primaryErr, s.cleanup())
	}
	return s, nil
}

// openTmpFile attempts to create an O_TMPFILE anonymous temp file.
// Returns an error if O_TMPFILE is not supported.
func openTmpFile(dir string) (*os.File, error) {
	// O_TMPFILE is Linux-specific (kernel 3.11+)
	// On other platforms, this will return an error
	const oTmpFile = 0o20000000 //nolint:revive // Linux O_TMPFILE flag

	fd, err := unix.Open(dir, unix.O_RDWR|oTmpFile, 0600)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "longsort-scratch"), nil
}

// cleanup closes the scratch file and removes it unless it is kept.
// Idempotent.
func (s *scratchFile) cleanup() error {
	var errs []error
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close scratch file: %w", err))
		}
		s.file = nil
	}
	// Anonymous files are gone once closed.
	if s.path != "" && !s.keep {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove scratch file: %w", err))
		}
		s.path = ""
	}
	return errors.Join(errs...)
}

// createOutput exclusively creates the output file and sizes it to size
// bytes. A file that already exists is a validation failure.
func createOutput(path string, size int64) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", sorterrors.ErrOutputExists, path)
		}
		return nil, fmt.Errorf("%w: create output file: %w", sorterrors.ErrIO, err)
	}
	if err := preallocate(f, size); err != nil {
		primaryErr := fmt.Errorf("%w: pre-allocate output file: %w", sorterrors.ErrIO, err)
		return nil, errors.Join(primaryErr, f.Close(), os.Remove(path))
	}
	return f, nil
}

// transfer copies size bytes from the start of src to the start of dst.
// *os.File.ReadFrom uses copy_file_range on Linux when the source is a file
// or an io.LimitedReader over one, so the data does not pass through user
// space.
func transfer(dst, src *os.File, size int64) error {
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek output: %w", sorterrors.ErrIO, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek scratch: %w", sorterrors.ErrIO, err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, size))
	if err != nil {
		return fmt.Errorf("%w: copy scratch to output: %w", sorterrors.ErrIO, err)
	}
	if n != size {
		return fmt.Errorf("%w: copied %d of %d bytes", sorterrors.ErrIO, n, size)
	}
	return nil
}
