package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput runs fn with stdout and stderr redirected to buffers.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	var out bytes.Buffer
	origStdout, origStderr := stdout, stderr
	stdout, stderr = &out, io.Discard
	defer func() { stdout, stderr = origStdout, origStderr }()

	err := fn()
	return out.String(), err
}

// resetFlags restores every flag variable to its default.
func resetFlags() {
	verbose, quiet, jsonOut, cfgFile = false, false, false, ""
	sortWorkers, sortStrategy, sortBatchSize = 0, "heap", 0
	sortTimeout, sortTempDir, sortKeepScratch = 10*time.Minute, "", false
	sortVerify, sortMemory, sortCheck = "order", 0, false
	genCount, genSeed, genSpan, genOrder = 1_000_000, 0x1234, 0, "random"
	dumpHead, dumpTail = 0, 0
}

// generate writes a test file with the gen command.
func generate(t *testing.T, path string, count int64, order string) {
	t.Helper()
	genCount, genOrder = count, order
	_, err := captureOutput(t, func() error { return runGen([]string{path}) })
	require.NoError(t, err)
}

func TestGenSortVerify(t *testing.T) {
	for _, strategy := range []string{"heap", "pairwise", "batched"} {
		t.Run(strategy, func(t *testing.T) {
			resetFlags()
			dir := t.TempDir()
			input := filepath.Join(dir, "in.bin")
			output := filepath.Join(dir, "out.bin")

			genSpan = 300
			generate(t, input, 5000, "random")

			sortWorkers, sortStrategy, sortCheck, sortVerify = 3, strategy, true, "multiset"
			sortMemory = 3 * 5000 * 8 / 10 // ten chunks
			out, err := captureOutput(t, func() error {
				return runSort(context.Background(), []string{input, output})
			})
			require.NoError(t, err, out)
			assert.Contains(t, out, "Sorted 5,000 elements")
			assert.Contains(t, out, "Chunks:   10")
			assert.Contains(t, out, "Rounds:   4")
			assert.Contains(t, out, "Order:    ok")

			_, err = captureOutput(t, func() error { return runVerify([]string{input, output}) })
			require.NoError(t, err)
		})
	}
}

func TestSortJSON(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bin")
	generate(t, input, 100, "random")

	jsonOut, sortWorkers, sortCheck = true, 2, true
	out, err := captureOutput(t, func() error {
		return runSort(context.Background(), []string{input, filepath.Join(dir, "out.bin")})
	})
	require.NoError(t, err)

	var result struct {
		Elements int64  `json:"elements"`
		Workers  int    `json:"workers"`
		Strategy string `json:"strategy"`
		Verified bool   `json:"verified"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, int64(100), result.Elements)
	assert.Equal(t, 2, result.Workers)
	assert.Equal(t, "heap", result.Strategy)
	assert.True(t, result.Verified)
}

func TestSortRejectsBadFlags(t *testing.T) {
	dir := t.TempDir()
	args := []string{filepath.Join(dir, "in.bin"), filepath.Join(dir, "out.bin")}

	resetFlags()
	sortStrategy = "bogus"
	assert.Error(t, runSort(context.Background(), args), "unknown strategy")

	resetFlags()
	sortVerify = "bogus"
	assert.Error(t, runSort(context.Background(), args), "unknown verify level")
}

func TestVerifyDetectsUnsorted(t *testing.T) {
	resetFlags()
	input := filepath.Join(t.TempDir(), "in.bin")
	generate(t, input, 50, "random")

	out, err := captureOutput(t, func() error { return runVerify([]string{input, input}) })
	require.Error(t, err, "verify accepted unsorted output")
	assert.Contains(t, out, "Length:   ok")
	assert.Contains(t, out, "Multiset: ok")
	assert.Contains(t, out, "Order:    FAILED")
}

func TestDumpCommand(t *testing.T) {
	resetFlags()
	path := filepath.Join(t.TempDir(), "asc.bin")
	generate(t, path, 10, "ascending")

	dumpHead, dumpTail = 2, 2
	out, err := captureOutput(t, func() error { return runDump([]string{path}) })
	require.NoError(t, err)
	assert.Equal(t, "0\t-5\n1\t-4\n...\n8\t3\n9\t4\n", out)

	resetFlags()
	jsonOut, dumpHead = true, 3
	out, err = captureOutput(t, func() error { return runDump([]string{path}) })
	require.NoError(t, err)

	var result struct {
		Elements int64       `json:"elements"`
		Entries  []dumpEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(10), result.Elements)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, dumpEntry{Index: 2, Value: -3}, result.Entries[2])
}

func TestDumpRanges(t *testing.T) {
	tests := []struct {
		name       string
		n          int64
		head, tail int64
		want       [][2]int64
	}{
		{"all", 10, 0, 0, [][2]int64{{0, 10}}},
		{"head", 10, 3, 0, [][2]int64{{0, 3}}},
		{"tail", 10, 0, 3, [][2]int64{{7, 10}}},
		{"both", 10, 2, 2, [][2]int64{{0, 2}, {8, 10}}},
		{"overlap", 10, 6, 6, [][2]int64{{0, 6}, {6, 10}}},
		{"head_past_end", 4, 9, 0, [][2]int64{{0, 4}}},
		{"head_covers_tail", 4, 9, 2, [][2]int64{{0, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dumpRanges(tt.n, tt.head, tt.tail))
		})
	}
}

func TestBindConfig(t *testing.T) {
	newCmd := func() (*cobra.Command, *int, *string, *string) {
		var workers int
		var strategy, tempDir string
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().IntVar(&workers, "workers", 0, "")
		cmd.Flags().StringVar(&strategy, "strategy", "heap", "")
		cmd.Flags().StringVar(&tempDir, "temp-dir", "", "")
		return cmd, &workers, &strategy, &tempDir
	}

	t.Run("env", func(t *testing.T) {
		t.Setenv("LONGSORT_WORKERS", "6")
		t.Setenv("LONGSORT_TEMP_DIR", "/scratch")
		cmd, workers, strategy, tempDir := newCmd()
		require.NoError(t, bindConfig(cmd, ""))
		assert.Equal(t, 6, *workers)
		assert.Equal(t, "/scratch", *tempDir)
		assert.Equal(t, "heap", *strategy)
	})

	t.Run("file_and_explicit_flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "longsort.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 5\nstrategy: batched\n"), 0o644))

		cmd, workers, strategy, _ := newCmd()
		require.NoError(t, cmd.Flags().Set("strategy", "pairwise"))
		require.NoError(t, bindConfig(cmd, path))
		assert.Equal(t, 5, *workers)
		assert.Equal(t, "pairwise", *strategy, "explicit flag must win over config")
	})

	t.Run("bad_value", func(t *testing.T) {
		t.Setenv("LONGSORT_WORKERS", "many")
		cmd, _, _, _ := newCmd()
		assert.Error(t, bindConfig(cmd, ""))
	})

	t.Run("missing_file", func(t *testing.T) {
		cmd, _, _, _ := newCmd()
		assert.Error(t, bindConfig(cmd, filepath.Join(t.TempDir(), "nope.yaml")))
	})
}
