package longsort

import (
	"fmt"
	"os"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/digest"
)

// Digest is an order-independent fingerprint of a multiset of elements.
// Two files holding the same values in any order have equal digests.
type Digest = digest.Multiset

// Summary describes the contents of an element file.
type Summary = digest.Summary

// Checksum reads the file at path in one streaming pass and returns its
// element count, content hash, multiset digest, and whether it is ascending.
// A file whose length is not a multiple of ElemSize fails with
// sorterrors.ErrMisalignedInput.
func Checksum(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", sorterrors.ErrIO, err)
	}
	defer f.Close()
	fadviseSequential(int(f.Fd()), 0, 0)

	s, err := digest.Summarize(f)
	if err != nil {
		return s, fmt.Errorf("checksum %s: %w", path, err)
	}
	return s, nil
}
