// Bench is a benchmarking tool for measuring longsort throughput and memory
// usage across merge strategies.
//
// Usage:
//
//	go run ./cmd/bench -n 100000000 -workers 8 -strategy all
//
// Flags:
//
//	-n          Number of elements (default: 10,000,000)
//	-workers    Number of parallel workers (default: number of CPUs)
//	-strategy   heap, pairwise, batched, or all (default: all)
//	-memory     Memory budget in bytes, 0 to derive from the environment
//	-span       Value span, 0 for the full int64 range (default: 0)
//	-dir        Directory for the input, scratch, and output files
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/longsort"
	"github.com/tamirms/longsort/internal/datagen"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler tracks peak heap and RSS while a sort runs. Uses
// runtime/metrics rather than ReadMemStats to avoid stop-the-world pauses.
type peakSampler struct {
	heap atomic.Uint64
	rss  atomic.Uint64
	done chan struct{}
}

func startSampler() *peakSampler {
	s := &peakSampler{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.heap, samples[0].Value.Uint64())
				storeMax(&s.rss, getMaxRSS())
			}
		}
	}()
	return s
}

func (s *peakSampler) stop() (heap, rss uint64) {
	close(s.done)
	storeMax(&s.rss, getMaxRSS())
	return s.heap.Load(), s.rss.Load()
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

type benchResult struct {
	strategy longsort.MergeStrategy
	res      longsort.Result
	total    time.Duration
	peakHeap uint64
	peakRSS  uint64
}

func main() {
	nFlag := flag.Int64("n", 10_000_000, "number of elements")
	workersFlag := flag.Int("workers", 0, "number of parallel workers (0 = number of CPUs)")
	strategyFlag := flag.String("strategy", "all", "merge strategy: heap, pairwise, batched, or all")
	memoryFlag := flag.Int64("memory", 0, "memory budget in bytes (0 = derive from the environment)")
	batchFlag := flag.Int("batch", 0, "batch size for the batched strategy (0 = default)")
	spanFlag := flag.Uint64("span", 0, "value span (0 = full int64 range)")
	seedFlag := flag.Uint("seed", 0x1234, "generator seed")
	dirFlag := flag.String("dir", "", "working directory (default: a new temp dir)")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (sort phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	flag.Parse()

	var strategies []longsort.MergeStrategy
	if *strategyFlag == "all" {
		strategies = []longsort.MergeStrategy{longsort.MergeHeap, longsort.MergePairwise, longsort.MergeBatched}
	} else {
		s, err := longsort.ParseMergeStrategy(*strategyFlag)
		if err != nil {
			fmt.Println(err)
			return
		}
		strategies = []longsort.MergeStrategy{s}
	}

	tmpDir := *dirFlag
	if tmpDir == "" {
		var err error
		tmpDir, err = os.MkdirTemp("", "bench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
	}
	input := filepath.Join(tmpDir, "input.bin")

	fmt.Printf("Generating %d elements...\n", *nFlag)
	genStart := time.Now()
	cfg := datagen.Config{Count: *nFlag, Seed: uint32(*seedFlag), Span: *spanFlag}
	if err := datagen.WriteFile(input, cfg); err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		return
	}
	defer func() { _ = os.Remove(input) }()
	genDuration := time.Since(genStart)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	var results []benchResult
	for _, strategy := range strategies {
		output := filepath.Join(tmpDir, "output-"+strategy.String()+".bin")
		fmt.Printf("Sorting (%s merge)...\n", strategy)

		runtime.GC()
		sampler := startSampler()
		start := time.Now()
		res, err := longsort.Sort(context.Background(), input, output,
			longsort.WithWorkers(*workersFlag),
			longsort.WithMemoryLimit(*memoryFlag),
			longsort.WithMergeStrategy(strategy),
			longsort.WithBatchSize(*batchFlag),
			longsort.WithTempDir(tmpDir),
			longsort.WithVerify(longsort.VerifyOff),
		)
		total := time.Since(start)
		peakHeap, peakRSS := sampler.stop()
		if err != nil {
			fmt.Printf("Sort failed: %v\n", err)
			return
		}

		sum, err := longsort.Checksum(output)
		_ = os.Remove(output)
		if err != nil {
			fmt.Printf("Checksum failed: %v\n", err)
			return
		}
		if !sum.Sorted || sum.Elements != *nFlag {
			fmt.Printf("Output check failed: %d elements, sorted=%v\n", sum.Elements, sum.Sorted)
			return
		}
		results = append(results, benchResult{strategy, res, total, peakHeap, peakRSS})
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	mb := float64(*nFlag*longsort.ElemSize) / 1_000_000
	fmt.Printf("\n")
	fmt.Printf("Input: %d elements (%.1f MB), generated in %.2f sec\n", *nFlag, mb, genDuration.Seconds())
	fmt.Printf("╔════════════╦═════════╦════════╦══════════╦══════════╦══════════╦═══════════╦═══════════╦═══════════╗\n")
	fmt.Printf("║ Strategy   ║ Workers ║ Chunks ║ Rounds   ║ Sort     ║ Merge    ║ Total     ║ MB/sec    ║ Peak RSS  ║\n")
	fmt.Printf("╠════════════╬═════════╬════════╬══════════╬══════════╬══════════╬═══════════╬═══════════╬═══════════╣\n")
	for _, r := range results {
		fmt.Printf("║ %-10s ║ %7d ║ %6d ║ %8d ║ %6.2f s ║ %6.2f s ║ %7.2f s ║ %9.1f ║ %6.1f MB ║\n",
			r.strategy, r.res.Workers, r.res.Chunks, r.res.Rounds,
			r.res.SortPhase.Seconds(), r.res.MergePhase.Seconds(), r.total.Seconds(),
			mb/r.total.Seconds(), float64(r.peakRSS)/1_000_000)
	}
	fmt.Printf("╚════════════╩═════════╩════════╩══════════╩══════════╩══════════╩═══════════╩═══════════╩═══════════╝\n")
	for _, r := range results {
		fmt.Printf("%s: peak heap %.1f MB\n", r.strategy, float64(r.peakHeap)/1_000_000)
	}
}
