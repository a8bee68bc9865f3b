package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/longsort"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <input> <output>",
		Short: "Check that output is a sorted permutation of input",
		Long: `The verify command checks that <output> holds the same number of
elements as <input>, that both hold the same multiset of values, and that
<output> is in ascending order. It exits non-zero if any check fails.

Example:
  longsort verify values.bin sorted.bin
  longsort verify values.bin sorted.bin --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
	return cmd
}

// verifyReport compares an input file with a sort result.
type verifyReport struct {
	Input          string `json:"input"`
	Output         string `json:"output"`
	InputElements  int64  `json:"input_elements"`
	OutputElements int64  `json:"output_elements"`
	InputDigest    string `json:"input_digest"`
	OutputDigest   string `json:"output_digest"`
	Sorted         bool   `json:"sorted"`
	FirstDescent   int64  `json:"first_descent"`
}

// OK reports whether every check passed.
func (r *verifyReport) OK() bool {
	return r.InputElements == r.OutputElements && r.InputDigest == r.OutputDigest && r.Sorted
}

func (r *verifyReport) print() {
	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "FAILED"
	}
	printInfo("Verification of %s against %s\n", r.Output, r.Input)
	printInfo("  Length:   %s (%s / %s)\n", status(r.InputElements == r.OutputElements),
		formatCount(r.InputElements), formatCount(r.OutputElements))
	printInfo("  Multiset: %s (%s / %s)\n", status(r.InputDigest == r.OutputDigest), r.InputDigest, r.OutputDigest)
	if r.Sorted {
		printInfo("  Order:    ok\n")
	} else {
		printInfo("  Order:    FAILED (first descent at element %d)\n", r.FirstDescent)
	}
}

func verifyFiles(input, output string) (*verifyReport, error) {
	printVerbose("Checksumming %s\n", input)
	in, err := longsort.Checksum(input)
	if err != nil {
		return nil, err
	}
	printVerbose("Checksumming %s\n", output)
	out, err := longsort.Checksum(output)
	if err != nil {
		return nil, err
	}
	return &verifyReport{
		Input:          input,
		Output:         output,
		InputElements:  in.Elements,
		OutputElements: out.Elements,
		InputDigest:    in.Multiset.String(),
		OutputDigest:   out.Multiset.String(),
		Sorted:         out.Sorted,
		FirstDescent:   out.FirstDescent,
	}, nil
}

func runVerify(args []string) error {
	report, err := verifyFiles(args[0], args[1])
	if err != nil {
		return err
	}
	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		report.print()
	}
	if !report.OK() {
		return fmt.Errorf("%s is not a sorted permutation of %s", args[1], args[0])
	}
	return nil
}
