package pipeline

import (
	"slices"
	"sync"
	"time"
)

// ExportSample is the outcome of one export job.
type ExportSample struct {
	Duration     time.Duration
	Pages        int
	Chapters     int
	SkippedPages int
	Failed       bool
}

type sample struct {
	timestamp time.Time
	ExportSample
}

// StatsSnapshot is a point-in-time aggregate of recent exports.
type StatsSnapshot struct {
	Count        int     `json:"count"`
	Failed       int     `json:"failed"`
	Pages        int     `json:"pages"`
	Chapters     int     `json:"chapters"`
	SkippedPages int     `json:"skipped_pages"`
	MinMs        int64   `json:"min_ms"`
	MaxMs        int64   `json:"max_ms"`
	AvgMs        float64 `json:"avg_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
}

// ExportStats tracks recent exports within a rolling window.
type ExportStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewExportStats(maxAge time.Duration) *ExportStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &ExportStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (s *ExportStats) Record(e ExportSample) {
	if e.Duration < 0 {
		e.Duration = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, ExportSample: e})
}

// Snapshot aggregates the samples still inside the window. Latency
// figures cover all exports, failed ones included.
func (s *ExportStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		ms := sm.Duration.Milliseconds()
		values = append(values, ms)
		sum += ms
		snap.Pages += sm.Pages
		snap.Chapters += sm.Chapters
		snap.SkippedPages += sm.SkippedPages
		if sm.Failed {
			snap.Failed++
		}
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *ExportStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.timestamp.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
