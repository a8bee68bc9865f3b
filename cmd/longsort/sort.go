package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamirms/longsort"
)

var (
	sortWorkers     int
	sortStrategy    string
	sortBatchSize   int
	sortTimeout     time.Duration
	sortTempDir     string
	sortKeepScratch bool
	sortVerify      string
	sortMemory      int64
	sortCheck       bool
)

func init() {
	cmd := newSortCmd()
	cmd.Flags().IntVarP(&sortWorkers, "workers", "w", 0, "Worker pool size (0 = number of CPUs)")
	cmd.Flags().StringVar(&sortStrategy, "strategy", "heap", "Merge strategy (heap, pairwise, batched)")
	cmd.Flags().IntVar(&sortBatchSize, "batch-size", 0, "Per-run buffer length for the batched strategy (0 = default)")
	cmd.Flags().DurationVar(&sortTimeout, "timeout", 10*time.Minute, "Deadline for each phase and merge round (0 = none)")
	cmd.Flags().StringVar(&sortTempDir, "temp-dir", "", "Directory for the scratch file (default: output directory)")
	cmd.Flags().BoolVar(&sortKeepScratch, "keep-scratch", false, "Keep the scratch file after sorting")
	cmd.Flags().StringVar(&sortVerify, "verify", "order", "Checks during the sort (off, order, multiset)")
	cmd.Flags().Int64Var(&sortMemory, "memory", 0, "Memory budget in bytes (0 = derive from the environment)")
	cmd.Flags().BoolVar(&sortCheck, "check", false, "Verify the output against the input after sorting")
	rootCmd.AddCommand(cmd)
}

func newSortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort <input> <output>",
		Short: "Sort an element file",
		Long: `The sort command sorts the 64-bit integers in <input> into a new file
<output>. The output must not exist.

Example:
  longsort sort values.bin sorted.bin
  longsort sort values.bin sorted.bin --workers 8 --strategy batched
  longsort sort values.bin sorted.bin --verify multiset --check --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSort(ctx, args)
		},
	}
	return cmd
}

func runSort(ctx context.Context, args []string) error {
	input, output := args[0], args[1]

	strategy, err := longsort.ParseMergeStrategy(sortStrategy)
	if err != nil {
		return err
	}
	level, err := longsort.ParseVerifyLevel(sortVerify)
	if err != nil {
		return err
	}

	opts := []longsort.Option{
		longsort.WithWorkers(sortWorkers),
		longsort.WithMergeStrategy(strategy),
		longsort.WithBatchSize(sortBatchSize),
		longsort.WithTimeout(sortTimeout),
		longsort.WithTempDir(sortTempDir),
		longsort.WithKeepScratch(sortKeepScratch),
		longsort.WithVerify(level),
		longsort.WithMemoryLimit(sortMemory),
		longsort.WithLogger(newLogger()),
	}

	printVerbose("Sorting %s into %s\n", input, output)
	start := time.Now()
	res, err := longsort.Sort(ctx, input, output, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var report *verifyReport
	if sortCheck {
		report, err = verifyFiles(input, output)
		if err != nil {
			return err
		}
	}

	if jsonOut {
		result := map[string]any{
			"input":        input,
			"output":       output,
			"elements":     res.Elements,
			"workers":      res.Workers,
			"chunks":       res.Chunks,
			"rounds":       res.Rounds,
			"strategy":     res.Strategy.String(),
			"memory":       res.MemoryLimit,
			"sort_ms":      res.SortPhase.Milliseconds(),
			"merge_ms":     res.MergePhase.Milliseconds(),
			"transfer_ms":  res.Transfer.Milliseconds(),
			"total_ms":     elapsed.Milliseconds(),
			"scratch":      res.ScratchPath,
			"verified":     report != nil && report.OK(),
			"verification": report,
		}
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printInfo("Sorted %s elements in %v\n", formatCount(res.Elements), elapsed.Round(time.Millisecond))
		printInfo("  Workers:  %d\n", res.Workers)
		printInfo("  Chunks:   %d\n", res.Chunks)
		printInfo("  Rounds:   %d (%s merge)\n", res.Rounds, res.Strategy)
		printInfo("  Sort:     %v\n", res.SortPhase.Round(time.Millisecond))
		printInfo("  Merge:    %v\n", res.MergePhase.Round(time.Millisecond))
		if res.Transfer > 0 {
			printInfo("  Transfer: %v\n", res.Transfer.Round(time.Millisecond))
		}
		if res.ScratchPath != "" {
			printInfo("  Scratch:  %s\n", res.ScratchPath)
		}
		if report != nil {
			report.print()
		}
	}

	if report != nil && !report.OK() {
		return fmt.Errorf("output %s failed verification", output)
	}
	return nil
}
