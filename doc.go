// Package longsort sorts flat files of signed 64-bit integers that may be far
// larger than memory.
//
// A file is a packed sequence of 8-byte elements in native byte order with no
// header. Sorting runs in two phases over a scratch file the same size as the
// input:
//
//  1. The input is divided into contiguous chunks, small enough that one
//     chunk per worker fits the memory budget. Workers sort chunks in
//     parallel into the matching ranges of the scratch file.
//  2. Merge rounds combine adjacent runs two at a time, alternating between
//     the scratch and output files, until one run covers the whole file.
//     When the last round lands in the scratch file its contents are copied
//     to the output.
//
// # Basic Usage
//
//	res, err := longsort.Sort(ctx, "values.bin", "sorted.bin",
//	    longsort.WithWorkers(8),
//	    longsort.WithMergeStrategy(longsort.MergeBatched),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d elements in %d chunks, %d rounds\n", res.Elements, res.Chunks, res.Rounds)
//
// Errors wrap one of the category sentinels in the errors subpackage
// (ErrValidation, ErrResourceExhausted, ErrIO, ErrTimedOut,
// ErrInconsistent); test with errors.Is.
//
// # Package Structure
//
//   - Public API: sorter.go (Sort, NewSorter, Sorter.Sort), checksum.go (Checksum)
//   - Configuration: options.go (Option, With* functions)
//   - Files: files.go (scratch, output, transfer)
//   - Chunk planning: internal/split, internal/budget
//   - Mapped cursors: internal/view
//   - Sorting and merging: internal/chunk, internal/merge
//   - Fingerprints: internal/digest
//   - Platform: fallocate_*.go, fadvise_*.go (OS-specific optimizations)
package longsort
