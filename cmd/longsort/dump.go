package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tamirms/longsort"
	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/encoding"
)

var (
	dumpHead int64
	dumpTail int64
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().Int64Var(&dumpHead, "head", 0, "Print only the first N elements")
	cmd.Flags().Int64Var(&dumpTail, "tail", 0, "Print only the last N elements")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Human-readable dump of an element file",
		Long: `The dump command prints the index and value of each element in a file.
With --head and/or --tail only the ends of the file are printed.

Example:
  longsort dump sorted.bin
  longsort dump sorted.bin --head 10 --tail 10
  longsort dump sorted.bin --head 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// dumpEntry is one printed element.
type dumpEntry struct {
	Index int64 `json:"index"`
	Value int64 `json:"value"`
}

// dumpRanges returns the element ranges [start, end) selected by head and
// tail for a file of n elements.
func dumpRanges(n, head, tail int64) [][2]int64 {
	if head <= 0 && tail <= 0 {
		return [][2]int64{{0, n}}
	}
	var ranges [][2]int64
	headEnd := int64(0)
	if head > 0 {
		headEnd = min(head, n)
		ranges = append(ranges, [2]int64{0, headEnd})
	}
	if tail > 0 {
		if start := max(n-tail, headEnd); start < n {
			ranges = append(ranges, [2]int64{start, n})
		}
	}
	return ranges
}

func runDump(args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size()%longsort.ElemSize != 0 {
		return fmt.Errorf("%w: %s is %d bytes", sorterrors.ErrMisalignedInput, path, st.Size())
	}
	n := st.Size() / longsort.ElemSize
	printVerbose("Dumping %s (%d elements)\n", path, n)

	var entries []dumpEntry
	var prevEnd int64
	buf := make([]byte, longsort.ElemSize)
	for _, r := range dumpRanges(n, dumpHead, dumpTail) {
		if r[0] > prevEnd && !jsonOut {
			printInfo("...\n")
		}
		br := bufio.NewReader(io.NewSectionReader(f, r[0]*longsort.ElemSize, (r[1]-r[0])*longsort.ElemSize))
		for i := r[0]; i < r[1]; i++ {
			if _, err := io.ReadFull(br, buf); err != nil {
				return fmt.Errorf("read element %d: %w", i, err)
			}
			v := encoding.Int64(buf)
			if jsonOut {
				entries = append(entries, dumpEntry{Index: i, Value: v})
			} else {
				printInfo("%d\t%d\n", i, v)
			}
		}
		prevEnd = r[1]
	}

	if jsonOut {
		return printJSON(map[string]any{
			"file":     path,
			"elements": n,
			"entries":  entries,
		})
	}
	return nil
}
