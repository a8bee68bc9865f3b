package longsort

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/merge"
)

const (
	// defaultTimeout bounds each batch: the sort phase and every merge round.
	defaultTimeout = 10 * time.Minute
)

// MergeStrategy selects how sorted runs are combined. Every strategy
// produces identical output; they differ in speed and resident memory.
type MergeStrategy = merge.StrategyID

const (
	// MergeHeap merges through a min-heap keyed by run heads.
	MergeHeap = merge.StrategyHeap
	// MergePairwise merges two runs head to head without a heap.
	MergePairwise = merge.StrategyPairwise
	// MergeBatched merges through a heap of per-run batches.
	MergeBatched = merge.StrategyBatched
)

// ParseMergeStrategy returns the strategy named "heap", "pairwise", or "batched".
func ParseMergeStrategy(name string) (MergeStrategy, error) {
	return merge.ParseStrategy(name)
}

// VerifyLevel selects which post-conditions are checked while sorting.
type VerifyLevel int

const (
	// VerifyOff checks only element counts and cursor positions.
	VerifyOff VerifyLevel = iota
	// VerifyOrder also checks every merge output is ascending.
	VerifyOrder
	// VerifyMultiset also checks, after each stage, that the output holds
	// the same multiset of values as the input.
	VerifyMultiset
)

func (v VerifyLevel) String() string {
	switch v {
	case VerifyOff:
		return "off"
	case VerifyOrder:
		return "order"
	case VerifyMultiset:
		return "multiset"
	default:
		return "unknown"
	}
}

// ParseVerifyLevel returns the level named "off", "order", or "multiset".
func ParseVerifyLevel(name string) (VerifyLevel, error) {
	for _, v := range []VerifyLevel{VerifyOff, VerifyOrder, VerifyMultiset} {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown verify level %q", sorterrors.ErrInvalidOption, name)
}

// Option is a functional option for configuring a sort.
type Option func(*config)

type config struct {
	workers     int   // <= 0 means GOMAXPROCS
	memoryLimit int64 // <= 0 means query the environment
	maxChunks   int   // <= 0 means derive from the platform map ceiling
	merge       merge.Config
	timeout     time.Duration
	tempDir     string // "" means the output file's directory
	keepScratch bool
	verify      VerifyLevel
	logger      *slog.Logger
}

func defaultConfig() *config {
	return &config{
		merge:   merge.Config{Strategy: merge.StrategyHeap, BatchSize: merge.DefaultBatchSize},
		timeout: defaultTimeout,
		verify:  VerifyOrder,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithWorkers sets the worker pool size shared by the sort phase and every
// merge round. Zero or negative uses runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithMemoryLimit overrides the memory the sort phase may hold resident.
// By default the figure is derived from the process memory limit or
// physical RAM.
func WithMemoryLimit(bytes int64) Option {
	return func(c *config) {
		c.memoryLimit = bytes
	}
}

// WithMaxChunkCount overrides the ceiling on the number of chunks, which by
// default is derived from the platform's limit on open memory maps.
func WithMaxChunkCount(n int) Option {
	return func(c *config) {
		c.maxChunks = n
	}
}

// WithMergeStrategy selects the merge strategy. Default is MergeHeap.
func WithMergeStrategy(s MergeStrategy) Option {
	return func(c *config) {
		c.merge.Strategy = s
	}
}

// WithBatchSize sets the per-run buffer length used by MergeBatched.
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.merge.BatchSize = n
	}
}

// WithTimeout bounds each batch of parallel work. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithTempDir sets the directory for the scratch file. It should be on the
// same filesystem as the output so the final transfer can be done in-kernel.
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}

// WithKeepScratch retains the scratch file after the run for diagnostics.
// Its path is reported in Result.ScratchPath.
func WithKeepScratch(keep bool) Option {
	return func(c *config) {
		c.keepScratch = keep
	}
}

// WithVerify sets the verification level. Default is VerifyOrder.
func WithVerify(level VerifyLevel) Option {
	return func(c *config) {
		c.verify = level
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
