// Copyright 2025 CacheFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/context"
	"golang.org/x/sync/semaphore"

	"github.com/cachefs/pagecache/internal/memory"
	"github.com/cachefs/pagecache/internal/page"
	"github.com/cachefs/pagecache/internal/pagecache"
	"github.com/cachefs/pagecache/internal/readahead"
	"github.com/cachefs/pagecache/internal/storage"
	"github.com/cachefs/pagecache/internal/workerpool"
)

var (
	simFileSize  int64
	simPattern   string
	simReads     int64
	simReadSize  int64
	simStride    int64
	simSeed      int64
	simTraceFile string
	simForced    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay an access trace through the read-ahead stack",
	Long: `Replays a synthetic or recorded access trace through a full prefetch
stack (page pool, presence index, in-memory device, read-ahead stream) and
reports cache hits, misses and prefetch efficiency.

Each access follows the consumer contract: an absent page triggers the
synchronous entry point, a cached page carrying the read-ahead marker
triggers the asynchronous one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accesses, err := buildTrace()
		if err != nil {
			return err
		}
		return runSimulation(accesses)
	},
}

func init() {
	simulateCmd.Flags().Int64Var(&simFileSize, "sim-file-size-bytes", 64<<20, "Size of the simulated file.")
	simulateCmd.Flags().StringVar(&simPattern, "pattern", "sequential", "Access pattern to generate: 'sequential', 'random' or 'strided'. Ignored when --trace-file is set.")
	simulateCmd.Flags().Int64Var(&simReads, "reads", 1024, "Number of reads to generate.")
	simulateCmd.Flags().Int64Var(&simReadSize, "read-size-bytes", 16384, "Size of each generated read.")
	simulateCmd.Flags().Int64Var(&simStride, "stride-bytes", 1<<20, "Distance between consecutive reads for the strided pattern.")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "Seed for the random pattern.")
	simulateCmd.Flags().StringVar(&simTraceFile, "trace-file", "", "File of 'offset length' pairs (bytes, one access per line) to replay instead of a generated pattern.")
	simulateCmd.Flags().BoolVar(&simForced, "forced", false, "Bypass the heuristics and prefetch exactly what each access covers.")
	rootCmd.AddCommand(simulateCmd)
}

// access is one simulated read call.
type access struct {
	offset int64
	length int64
}

func buildTrace() ([]access, error) {
	if simTraceFile != "" {
		return parseTraceFile(simTraceFile)
	}
	if simReadSize <= 0 || simReads <= 0 || simFileSize < simReadSize {
		return nil, fmt.Errorf("invalid trace parameters: reads=%d read-size=%d file-size=%d", simReads, simReadSize, simFileSize)
	}

	accesses := make([]access, 0, simReads)
	switch simPattern {
	case "sequential":
		offset := int64(0)
		for i := int64(0); i < simReads && offset+simReadSize <= simFileSize; i++ {
			accesses = append(accesses, access{offset: offset, length: simReadSize})
			offset += simReadSize
		}
	case "random":
		r := rand.New(rand.NewSource(simSeed))
		for i := int64(0); i < simReads; i++ {
			accesses = append(accesses, access{offset: r.Int63n(simFileSize - simReadSize + 1), length: simReadSize})
		}
	case "strided":
		if simStride <= 0 {
			return nil, fmt.Errorf("stride-bytes must be positive, got %d", simStride)
		}
		offset := int64(0)
		for i := int64(0); i < simReads; i++ {
			if offset+simReadSize > simFileSize {
				offset %= simStride
			}
			accesses = append(accesses, access{offset: offset, length: simReadSize})
			offset += simStride
		}
	default:
		return nil, fmt.Errorf("unknown pattern %q, want 'sequential', 'random' or 'strided'", simPattern)
	}
	return accesses, nil
}

func parseTraceFile(path string) ([]access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	var accesses []access
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var a access
		if _, err := fmt.Sscanf(text, "%d %d", &a.offset, &a.length); err != nil {
			return nil, fmt.Errorf("trace file line %d: %w", line, err)
		}
		if a.offset < 0 || a.length <= 0 || a.offset+a.length > simFileSize {
			return nil, fmt.Errorf("trace file line %d: access [%d, +%d) outside the simulated file", line, a.offset, a.length)
		}
		accesses = append(accesses, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}
	return accesses, nil
}

// pageGetter is the extra accessor the LRU index exposes beyond plain
// presence checks.
type pageGetter interface {
	Get(index int64) (*page.Page, bool)
}

type simStats struct {
	reads       int64
	pageReads   int64
	hits        int64
	misses      int64
	directReads int64
	prefetched  int64
	syncCalls   int64
	asyncCalls  int64
}

type simulator struct {
	pageSize int64
	pages    pageGetter
	stream   *readahead.Stream
	stats    simStats
}

func runSimulation(accesses []access) error {
	sim, flushMetrics, err := simulate(accesses)
	if err != nil {
		return err
	}
	sim.report(os.Stdout)
	return flushMetrics(context.Background(), os.Stdout)
}

// simulate builds the full prefetch stack and replays the trace through it.
func simulate(accesses []access) (*simulator, func(context.Context, io.Writer) error, error) {
	ctx := context.Background()

	wp, err := workerpool.NewStaticWorkerPool(uint32(config.Workers.PriorityWorkers), uint32(config.Workers.NormalWorkers))
	if err != nil {
		return nil, nil, fmt.Errorf("creating worker pool: %w", err)
	}
	wp.Start()
	defer wp.Stop()

	data := make([]byte, simFileSize)
	for i := range data {
		data[i] = byte(i)
	}
	device := storage.NewMemDevice(data, wp)

	pool, err := page.NewPool(
		config.PageCache.PageSizeBytes,
		config.PageCache.PoolPagesPerStream,
		semaphore.NewWeighted(config.PageCache.GlobalPagesLimit))
	if err != nil {
		return nil, nil, fmt.Errorf("creating page pool: %w", err)
	}
	index, err := pagecache.NewLRUIndex(int(config.PageCache.CapacityPages), func(_ int64, p *page.Page) {
		pool.Release(p)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating presence index: %w", err)
	}

	var oracle memory.Oracle
	if config.ReadAhead.MemoryClamp {
		oracle = memory.NewSysinfoOracle()
	}

	metricHandle, flushMetrics, err := newSimMetrics()
	if err != nil {
		return nil, nil, err
	}

	mode := readahead.ModeHeuristic
	if simForced {
		mode = readahead.ModeForced
	}
	stream, err := readahead.NewStream(ctx, readahead.StreamOptions{
		FileSize:       simFileSize,
		PageSize:       config.PageCache.PageSizeBytes,
		MaxWindowPages: config.ReadAhead.MaxWindowPages,
		Mode:           mode,
		Index:          index,
		Pool:           pool,
		Device:         device,
		Oracle:         oracle,
		MetricHandle:   metricHandle,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating stream: %w", err)
	}

	sim := &simulator{
		pageSize: config.PageCache.PageSizeBytes,
		pages:    index.(pageGetter),
		stream:   stream,
	}
	for _, a := range accesses {
		if err := sim.read(a.offset, a.length); err != nil {
			return nil, nil, err
		}
	}
	return sim, flushMetrics, nil
}

// read replays one consumer read call page by page: a cache miss goes
// through the synchronous entry point and blocks until the page arrives;
// a hit on the marker page triggers the asynchronous one.
func (sim *simulator) read(offset, length int64) error {
	sim.stats.reads++
	first := offset / sim.pageSize
	last := (offset + length - 1) / sim.pageSize

	for idx := first; idx <= last; idx++ {
		sim.stats.pageReads++
		remaining := last - idx + 1

		if p, ok := sim.pages.Get(idx); ok {
			sim.stats.hits++
			if p.Readahead() {
				sim.stats.asyncCalls++
				queued, err := sim.stream.AsyncReadAhead(p, idx, remaining)
				if err != nil {
					return fmt.Errorf("async readahead at page %d: %w", idx, err)
				}
				sim.stats.prefetched += queued
			}
			sim.waitFor(p)
			continue
		}

		sim.stats.misses++
		sim.stats.syncCalls++
		queued, err := sim.stream.SyncReadAhead(idx, remaining)
		if err != nil {
			return fmt.Errorf("sync readahead at page %d: %w", idx, err)
		}
		sim.stats.prefetched += queued

		if p, ok := sim.pages.Get(idx); ok {
			sim.waitFor(p)
		} else {
			// Pool exhaustion left the page unqueued; a real consumer
			// would fall back to a direct device read here.
			sim.stats.directReads++
		}
	}
	return nil
}

// waitFor blocks until the page's read completes, like a consumer blocking
// in its read path.
func (sim *simulator) waitFor(p *page.Page) {
	if p.Uptodate() {
		return
	}
	<-p.NotificationChannel()
}

func (sim *simulator) report(w *os.File) {
	s := sim.stats
	fmt.Fprintf(w, "accesses:        %d (%d page reads)\n", s.reads, s.pageReads)
	fmt.Fprintf(w, "cache hits:      %d\n", s.hits)
	fmt.Fprintf(w, "cache misses:    %d\n", s.misses)
	fmt.Fprintf(w, "direct reads:    %d\n", s.directReads)
	fmt.Fprintf(w, "pages prefetched: %d\n", s.prefetched)
	fmt.Fprintf(w, "entry points:    %d sync, %d async\n", s.syncCalls, s.asyncCalls)
	if s.pageReads > 0 {
		fmt.Fprintf(w, "hit ratio:       %.1f%%\n", 100*float64(s.hits)/float64(s.pageReads))
	}
	if s.prefetched > 0 {
		wasted := s.prefetched - s.hits
		if wasted < 0 {
			wasted = 0
		}
		fmt.Fprintf(w, "wasted prefetch: %d pages\n", wasted)
	}
}
