package longsort

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/budget"
	"github.com/tamirms/longsort/internal/chunk"
	"github.com/tamirms/longsort/internal/digest"
	"github.com/tamirms/longsort/internal/merge"
	"github.com/tamirms/longsort/internal/split"
	"github.com/tamirms/longsort/internal/view"
)

// ElemSize is the width in bytes of one element: a signed 64-bit integer in
// native byte order.
const ElemSize = split.ElemSize

// Result reports what a completed sort did.
type Result struct {
	Elements    int64
	Workers     int
	Chunks      int
	Rounds      int
	Strategy    MergeStrategy
	MemoryLimit int64
	SortPhase   time.Duration
	MergePhase  time.Duration // merge rounds only
	// Transfer is the final copy from the scratch file, zero when the last
	// merge round wrote the output file directly. No phase includes the
	// output fsync.
	Transfer    time.Duration
	ScratchPath string // set only with WithKeepScratch
}

// Sorter sorts one input file into one output file.
//
// Usage:
//
//	s, err := longsort.NewSorter("in.bin", "out.bin", longsort.WithWorkers(8))
//	if err != nil { return err }
//	res, err := s.Sort(ctx)
//
// NewSorter validates the request and solves the chunk budget without
// touching the filesystem beyond stat calls; Sort does the work. A Sorter is
// single-use and not safe for concurrent use.
type Sorter struct {
	cfg    *config
	log    *slog.Logger
	input  string
	output string

	size      int64 // input bytes
	workers   int
	memory    int64
	maxChunks int
	chunks    int

	inputDigest digest.Multiset // VerifyMultiset only
	used        bool
}

// Sort sorts input into output. It is shorthand for NewSorter followed by
// Sorter.Sort.
func Sort(ctx context.Context, input, output string, opts ...Option) (Result, error) {
	s, err := NewSorter(input, output, opts...)
	if err != nil {
		return Result{}, err
	}
	return s.Sort(ctx)
}

// NewSorter validates input and output and plans the chunk count.
//
// Errors wrap sorterrors.ErrValidation for unusable paths or options and
// sorterrors.ErrResourceExhausted when no chunk count fits the memory and
// mapping ceilings. No output file is created on failure.
func NewSorter(input, output string, opts ...Option) (*Sorter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	size, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if err := validateOutput(output); err != nil {
		return nil, err
	}

	s := &Sorter{
		cfg:       cfg,
		log:       cfg.logger,
		input:     input,
		output:    output,
		size:      size,
		workers:   cfg.workers,
		memory:    cfg.memoryLimit,
		maxChunks: cfg.maxChunks,
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	if s.memory <= 0 {
		s.memory = budget.Available()
	}
	if s.maxChunks <= 0 {
		s.maxChunks = budget.MaxChunkCountFor(budget.MapCeiling())
	}

	s.chunks, err = budget.ChunkCount(s.workers, s.size, s.memory, s.maxChunks)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *config) validate() error {
	if c.timeout < 0 {
		return fmt.Errorf("%w: negative timeout %v", sorterrors.ErrInvalidOption, c.timeout)
	}
	if c.merge.BatchSize < 0 || c.merge.BatchSize > merge.MaxBatchSize {
		return fmt.Errorf("%w: batch size %d outside [0, %d]", sorterrors.ErrInvalidOption, c.merge.BatchSize, merge.MaxBatchSize)
	}
	if c.merge.Strategy.String() == "unknown" {
		return fmt.Errorf("%w: merge strategy %d", sorterrors.ErrInvalidOption, c.merge.Strategy)
	}
	if c.verify < VerifyOff || c.verify > VerifyMultiset {
		return fmt.Errorf("%w: verify level %d", sorterrors.ErrInvalidOption, c.verify)
	}
	return nil
}

// validateInput returns the size of a non-empty, element-aligned regular file.
func validateInput(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: input: %w", sorterrors.ErrValidation, err)
	}
	if !st.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", sorterrors.ErrInputNotRegular, path)
	}
	if st.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", sorterrors.ErrEmptyInput, path)
	}
	if st.Size()%ElemSize != 0 {
		return 0, fmt.Errorf("%w: %s is %d bytes", sorterrors.ErrMisalignedInput, path, st.Size())
	}
	return st.Size(), nil
}

// validateOutput checks the output does not exist and its directory is writable.
func validateOutput(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", sorterrors.ErrOutputExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: output: %w", sorterrors.ErrValidation, err)
	}
	dir := filepath.Dir(path)
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: %s", sorterrors.ErrOutputDir, dir)
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s: %w", sorterrors.ErrOutputDir, dir, err)
	}
	return nil
}

// Chunks returns the planned number of chunks for the sort phase.
func (s *Sorter) Chunks() int { return s.chunks }

// Workers returns the resolved worker pool size.
func (s *Sorter) Workers() int { return s.workers }

// Sort runs the pipeline: parallel chunk sorts into a scratch file, then
// pairwise merge rounds alternating between the scratch and output files
// until one run covers the whole input.
//
// Any failure aborts the whole run. The scratch file is always cleaned up;
// an output file created by a failed run is removed, since its contents are
// undefined.
func (s *Sorter) Sort(ctx context.Context) (res Result, err error) {
	if s.used {
		return Result{}, fmt.Errorf("%w: sorter already used", sorterrors.ErrInvalidOption)
	}
	s.used = true

	res = Result{
		Elements:    s.size / ElemSize,
		Workers:     s.workers,
		Chunks:      s.chunks,
		Strategy:    s.cfg.merge.Strategy,
		MemoryLimit: s.memory,
	}
	s.log.Info("sort planned",
		"input", s.input, "output", s.output, "bytes", s.size,
		"workers", s.workers, "chunks", s.chunks, "memory", s.memory,
		"strategy", s.cfg.merge.Strategy.String(), "verify", s.cfg.verify.String())

	in, err := os.Open(s.input)
	if err != nil {
		return res, fmt.Errorf("%w: open input: %w", sorterrors.ErrIO, err)
	}
	defer in.Close()
	if st, err := in.Stat(); err != nil {
		return res, fmt.Errorf("%w: stat input: %w", sorterrors.ErrIO, err)
	} else if st.Size() != s.size {
		return res, fmt.Errorf("%w: %s was %d bytes, now %d", sorterrors.ErrInputChanged, s.input, s.size, st.Size())
	}
	fadviseSequential(int(in.Fd()), 0, s.size)

	tempDir := s.cfg.tempDir
	if tempDir == "" {
		tempDir = filepath.Dir(s.output)
	}
	scratch, err := createScratch(tempDir, s.size, s.cfg.keepScratch)
	if err != nil {
		return res, err
	}
	defer func() {
		err = errors.Join(err, scratch.cleanup())
	}()
	if s.cfg.keepScratch {
		res.ScratchPath = scratch.path
		s.log.Info("keeping scratch file", "path", scratch.path)
	}

	out, err := createOutput(s.output, s.size)
	if err != nil {
		return res, err
	}
	defer func() {
		closeErr := out.Close()
		if closeErr != nil {
			closeErr = fmt.Errorf("%w: close output: %w", sorterrors.ErrIO, closeErr)
		}
		if err != nil || closeErr != nil {
			err = errors.Join(err, closeErr, os.Remove(s.output))
		}
	}()

	start := time.Now()
	runs, err := s.sortPhase(ctx, in, scratch.file)
	if err != nil {
		return res, err
	}
	res.SortPhase = time.Since(start)
	s.log.Info("sort phase done", "runs", len(runs), "elapsed", res.SortPhase)

	start = time.Now()
	final, rounds, err := s.mergePhase(ctx, runs, scratch.file, out)
	res.Rounds = rounds
	res.MergePhase = time.Since(start)
	if err != nil {
		return res, err
	}
	if final == scratch.file {
		start = time.Now()
		if err := transfer(out, scratch.file, s.size); err != nil {
			return res, fmt.Errorf("transfer: %w", err)
		}
		res.Transfer = time.Since(start)
		s.log.Debug("transferred final run from scratch", "bytes", s.size, "elapsed", res.Transfer)
	}
	if err := out.Sync(); err != nil {
		return res, fmt.Errorf("%w: sync output: %w", sorterrors.ErrIO, err)
	}
	s.log.Info("sort complete", "rounds", rounds, "merge_elapsed", res.MergePhase)
	return res, nil
}

// sortPhase sorts each split of in into the same range of scratch and
// returns the resulting runs.
func (s *Sorter) sortPhase(ctx context.Context, in, scratch *os.File) ([]split.Split, error) {
	splits := split.Create(s.size/ElemSize, s.chunks)

	var inDigest, outDigest digestSum
	err := s.runBatch(ctx, "sort phase", len(splits), func(ctx context.Context, i int) error {
		sp := splits[i]
		if err := s.sortSplit(ctx, in, scratch, sp, &inDigest, &outDigest); err != nil {
			return fmt.Errorf("sort %v: %w", sp, err)
		}
		s.log.Debug("chunk sorted", "split", sp.String(), "elements", sp.Count)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.verify >= VerifyMultiset {
		s.inputDigest = inDigest.get()
		if got := outDigest.get(); got != s.inputDigest {
			return nil, fmt.Errorf("%w: sort phase output digest %v, input %v",
				sorterrors.ErrInconsistent, got, s.inputDigest)
		}
	}
	return splits, nil
}

func (s *Sorter) sortSplit(ctx context.Context, in, scratch *os.File, sp split.Split, inDigest, outDigest *digestSum) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := view.Map(in, sp, view.ReadOnly)
	if err != nil {
		return err
	}
	dst, err := view.Map(scratch, sp, view.ReadWrite)
	if err != nil {
		return errors.Join(err, src.Close())
	}
	defer func() {
		err = errors.Join(err, view.CloseAll(src, dst))
	}()
	dst.Prefault()

	if s.cfg.verify >= VerifyMultiset {
		inDigest.add(digest.Of(src.Elements()))
	}
	if err := chunk.Sort(src, dst); err != nil {
		return err
	}
	// The in-memory sort cannot be interrupted; stop before verifying.
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.verify >= VerifyOrder {
		if err := merge.CheckAscending(dst.Elements()); err != nil {
			return err
		}
	}
	if s.cfg.verify >= VerifyMultiset {
		outDigest.add(digest.Of(dst.Elements()))
	}
	return nil
}

// mergePhase runs fan-in rounds until one run remains. Round 1 reads the
// scratch file and writes the output file; each later round swaps the two.
// It returns the file holding the final run and the number of rounds.
func (s *Sorter) mergePhase(ctx context.Context, runs []split.Split, scratch, out *os.File) (*os.File, int, error) {
	files := [2]*os.File{scratch, out}
	src, dst := 0, 1
	round := 0
	for len(runs) > 1 {
		round++
		pairs, err := split.Group(runs)
		if err != nil {
			return nil, round, fmt.Errorf("%w: merge round %d: %w", sorterrors.ErrInconsistent, round, err)
		}

		var roundDigest digestSum
		stage := fmt.Sprintf("merge round %d", round)
		err = s.runBatch(ctx, stage, len(pairs), func(ctx context.Context, i int) error {
			p := pairs[i]
			if err := s.mergePair(ctx, p, files[src], files[dst], &roundDigest); err != nil {
				return fmt.Errorf("merge %v: %w", p.Merged(), err)
			}
			s.log.Debug("runs merged", "round", round, "split", p.Merged().String(), "runs", len(p.Runs()))
			return nil
		})
		if err != nil {
			return nil, round, fmt.Errorf("%s: %w", stage, err)
		}
		if s.cfg.verify >= VerifyMultiset {
			if got := roundDigest.get(); got != s.inputDigest {
				return nil, round, fmt.Errorf("%w: %s output digest %v, input %v",
					sorterrors.ErrInconsistent, stage, got, s.inputDigest)
			}
		}

		runs = split.Merge(pairs)
		src, dst = dst, src
		s.log.Info("merge round done", "round", round, "runs", len(runs))
	}
	return files[src], round, nil
}

// mergePair merges the runs of p from one file into the merged range of the
// other. An unpaired run is carried over by bulk copy.
func (s *Sorter) mergePair(ctx context.Context, p split.Pair, from, to *os.File, d *digestSum) (err error) {
	members := p.Runs()
	views := make([]*view.View, 0, len(members)+1)
	defer func() {
		err = errors.Join(err, view.CloseAll(views...))
	}()

	for _, r := range members {
		v, mapErr := view.Map(from, r, view.ReadOnly)
		if mapErr != nil {
			return mapErr
		}
		views = append(views, v)
	}
	out, mapErr := view.Map(to, p.Merged(), view.ReadWrite)
	if mapErr != nil {
		return mapErr
	}
	views = append(views, out)

	if err := merge.Run(ctx, s.cfg.merge, views[:len(members)], out); err != nil {
		return err
	}
	if s.cfg.verify >= VerifyOrder {
		if err := merge.CheckAscending(out.Elements()); err != nil {
			return err
		}
	}
	if s.cfg.verify >= VerifyMultiset {
		d.add(digest.Of(out.Elements()))
	}
	return nil
}

// runBatch runs task(0..n-1) on the worker pool and waits for all of them.
//
// The first failure cancels the batch: tasks not yet started are skipped and
// running ones see a cancelled context. A batch that outlives the configured
// timeout fails with ErrTimedOut, even if every task ignored the deadline
// and returned nil. runBatch returns only after every started task has
// returned, so callers may release shared resources afterwards.
func (s *Sorter) runBatch(parent context.Context, stage string, n int, task func(ctx context.Context, i int) error) error {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.cfg.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.cfg.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return guard(func() error { return task(gctx, i) })
		})
	}

	err := g.Wait()
	if err == nil {
		// Skipped tasks, or tasks that finished after the deadline.
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w: %s did not finish within %v: %w", sorterrors.ErrTimedOut, stage, s.cfg.timeout, err)
	}
	return err
}

// guard converts a panic in fn into an error. Faults on mapped memory (for
// example a truncated backing file) surface as ErrIO, anything else as
// ErrInconsistent.
func guard(fn func() error) (err error) {
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			if fault, ok := r.(interface{ Addr() uintptr }); ok {
				err = fmt.Errorf("%w: fault at %#x: %v", sorterrors.ErrIO, fault.Addr(), r)
				return
			}
			err = fmt.Errorf("%w: panic: %v", sorterrors.ErrInconsistent, r)
		}
	}()
	return fn()
}

// digestSum accumulates multiset digests from concurrent tasks.
type digestSum struct {
	mu  sync.Mutex
	sum digest.Multiset
}

func (d *digestSum) add(m digest.Multiset) {
	d.mu.Lock()
	d.sum.Merge(m)
	d.mu.Unlock()
}

func (d *digestSum) get() digest.Multiset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sum
}
