package main

import (
	"github.com/spf13/cobra"

	"github.com/tamirms/longsort/internal/datagen"
)

var (
	genCount int64
	genSeed  uint32
	genSpan  uint64
	genOrder string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().Int64VarP(&genCount, "count", "n", 1_000_000, "Number of elements")
	cmd.Flags().Uint32Var(&genSeed, "seed", 0x1234, "Generator seed")
	cmd.Flags().Uint64Var(&genSpan, "span", 0, "Draw random values from [-span/2, span/2) (0 = full range)")
	cmd.Flags().StringVar(&genOrder, "order", "random", "Value order (random, ascending, descending, constant)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <output>",
		Short: "Generate an element file",
		Long: `The gen command writes a reproducible sequence of 64-bit integers to a
new file. The same count, seed, span, and order always produce the same file.

Example:
  longsort gen values.bin --count 100000000
  longsort gen dups.bin --count 1000000 --span 100
  longsort gen sorted.bin --order ascending`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(args)
		},
	}
	return cmd
}

func runGen(args []string) error {
	order, err := datagen.ParseOrder(genOrder)
	if err != nil {
		return err
	}
	cfg := datagen.Config{Count: genCount, Seed: genSeed, Span: genSpan, Order: order}

	printVerbose("Generating %d %s elements into %s\n", genCount, order, args[0])
	if err := datagen.WriteFile(args[0], cfg); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"output":   args[0],
			"elements": genCount,
			"seed":     genSeed,
			"span":     genSpan,
			"order":    order.String(),
		})
	}
	printInfo("Wrote %s elements to %s\n", formatCount(genCount), args[0])
	return nil
}
