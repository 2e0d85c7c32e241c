// Package benchmark measures per-frame recognition latency and memory use
// of a frame processor.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
)

// Processor is the part of frameproc.Processor the benchmark drives.
type Processor interface {
	Process(ctx context.Context, f frame.Frame) (*flatten.Document, flatten.Diagnostics)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64  // Currently allocated bytes
	TotalAllocBytes uint64  // Total allocated bytes (cumulative)
	SysBytes        uint64  // Total bytes from system
	NumGC           uint32  // Number of GC runs
	GCCPUFraction   float64 // Fraction of CPU time spent in GC
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
		GCCPUFraction:   m.GCCPUFraction,
	}
}

// String returns a formatted string representation of memory stats.
func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.AllocBytes/1024,
		m.TotalAllocBytes/1024,
		m.SysBytes/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}

// Result holds the measurements for one frame.
type Result struct {
	Name         string
	Iterations   int
	Documents    int // iterations that produced a document
	Diagnostics  int // diagnostics summed over all iterations
	Latencies    []time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Error        error
}

// Total returns the summed latency.
func (r Result) Total() time.Duration {
	var total time.Duration
	for _, l := range r.Latencies {
		total += l
	}
	return total
}

// Mean returns the average latency, or zero without samples.
func (r Result) Mean() time.Duration {
	if len(r.Latencies) == 0 {
		return 0
	}
	return r.Total() / time.Duration(len(r.Latencies))
}

// Percentile returns the nearest-rank latency percentile (0 < p <= 100).
func (r Result) Percentile(p float64) time.Duration {
	if len(r.Latencies) == 0 || p <= 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), r.Latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// FramesPerSecond returns the sustained rate implied by the mean latency.
func (r Result) FramesPerSecond() float64 {
	mean := r.Mean()
	if mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(mean)
}

// String returns a formatted string representation of the result.
func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}

	memDiff := int64(r.MemoryAfter.AllocBytes) - int64(r.MemoryBefore.AllocBytes) //nolint:gosec // G115: display only
	return fmt.Sprintf("%s: %d iterations, %d documents, mean: %v, p95: %v, %.1f fps, mem: %+d KB",
		r.Name, r.Iterations, r.Documents, r.Mean(), r.Percentile(95), r.FramesPerSecond(), memDiff/1024)
}

type namedFrame struct {
	name  string
	frame frame.Frame
}

// Suite runs a set of frames through one processor.
type Suite struct {
	processor Processor
	frames    []namedFrame
	results   []Result
	mu        sync.Mutex
}

// NewSuite creates a suite around processor.
func NewSuite(processor Processor) *Suite {
	return &Suite{processor: processor}
}

// Add registers a frame under name.
func (s *Suite) Add(name string, f frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, namedFrame{name: name, frame: f})
}

// Run processes every frame iterations times, one after another, the way
// a camera stream delivers them.
func (s *Suite) Run(ctx context.Context, iterations int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]Result, 0, len(s.frames))
	for _, nf := range s.frames {
		s.results = append(s.results, s.runFrame(ctx, nf, iterations))
	}
	return append([]Result(nil), s.results...)
}

func (s *Suite) runFrame(ctx context.Context, nf namedFrame, iterations int) Result {
	result := Result{Name: nf.name, Iterations: iterations}
	if iterations <= 0 {
		result.Error = errors.New("iterations must be positive")
		return result
	}

	runtime.GC()
	result.MemoryBefore = GetMemoryStats()
	result.Latencies = make([]time.Duration, 0, iterations)

	for range iterations {
		if err := ctx.Err(); err != nil {
			result.Error = err
			break
		}
		start := time.Now()
		doc, diags := s.processor.Process(ctx, nf.frame)
		result.Latencies = append(result.Latencies, time.Since(start))
		if doc != nil {
			result.Documents++
		}
		result.Diagnostics += len(diags)
	}

	result.MemoryAfter = GetMemoryStats()
	return result
}

// Results returns the last run results.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// WriteReport prints the last results followed by a CSV section.
func (s *Suite) WriteReport(w io.Writer) error {
	results := s.Results()

	var werr error
	printf := func(format string, args ...any) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Frame Benchmark Results\n")
	printf("=======================\n")
	for _, r := range results {
		printf("%s\n", r.String())
	}

	printf("\nCSV Format:\n")
	printf("Frame,Iterations,Documents,Diagnostics,Mean_ms,P50_ms,P95_ms,Max_ms,FPS\n")
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		printf("%s,%d,%d,%d,%.2f,%.2f,%.2f,%.2f,%.1f\n",
			r.Name, r.Iterations, r.Documents, r.Diagnostics,
			ms(r.Mean()), ms(r.Percentile(50)), ms(r.Percentile(95)), ms(r.Percentile(100)),
			r.FramesPerSecond())
	}
	return werr
}

func ms(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
