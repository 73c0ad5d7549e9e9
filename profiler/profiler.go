// Package profiler tracks per-stage timings and hit rates of the detection
// loop and periodically reports them through slog.
package profiler

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	Name      string
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Average returns the mean duration, or zero when nothing was recorded.
func (t TimeTracker) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.TotalTime / time.Duration(t.Count)
}

// Report is a point-in-time summary of the profiler state.
type Report struct {
	Uptime     time.Duration
	Cycles     int64
	Hits       int64
	FPS        float64
	HitRate    float64
	Operations []TimeTracker
}

// ProfilingOptions configures the profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often MaybeReport emits a report (default: 2s).
	// A negative interval disables reporting.
	ReportInterval time.Duration
	// Logger receives the reports (default: slog.Default()).
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// CycleProfiler collects timings for the detection loop.
//
// It has no background goroutines: the loop calls MaybeReport once per cycle.
// All methods are safe on a nil receiver, which turns profiling off.
type CycleProfiler struct {
	mu sync.Mutex

	reportInterval time.Duration
	logger         *slog.Logger
	now            func() time.Time

	startTime  time.Time
	lastReport time.Time

	cycles, hits             int64
	windowCycles, windowHits int64

	operationTimes map[string]*TimeTracker
}

// NewCycleProfiler creates a new profiler with the specified options.
func NewCycleProfiler(opts ProfilingOptions) *CycleProfiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	start := opts.Now()
	return &CycleProfiler{
		reportInterval: opts.ReportInterval,
		logger:         opts.Logger,
		now:            opts.Now,
		startTime:      start,
		lastReport:     start,
		operationTimes: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - A function to call when the operation completes.
func (p *CycleProfiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := p.now()
	return func() {
		p.recordOperationTime(name, p.now().Sub(start))
	}
}

func (p *CycleProfiler) recordOperationTime(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{Name: name, MinTime: d, MaxTime: d}
		p.operationTimes[name] = tracker
	}
	tracker.Count++
	tracker.TotalTime += d
	if d < tracker.MinTime {
		tracker.MinTime = d
	}
	if d > tracker.MaxTime {
		tracker.MaxTime = d
	}
}

// RecordCycle counts a processed frame and whether it produced a detection.
func (p *CycleProfiler) RecordCycle(hit bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cycles++
	p.windowCycles++
	if hit {
		p.hits++
		p.windowHits++
	}
}

// Snapshot returns the totals since the profiler was created. FPS and hit
// rate cover the current report window.
func (p *CycleProfiler) Snapshot() Report {
	if p == nil {
		return Report{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(p.now())
}

func (p *CycleProfiler) snapshotLocked(now time.Time) Report {
	r := Report{
		Uptime: now.Sub(p.startTime),
		Cycles: p.cycles,
		Hits:   p.hits,
	}
	if elapsed := now.Sub(p.lastReport).Seconds(); elapsed > 0 {
		r.FPS = float64(p.windowCycles) / elapsed
	}
	if p.windowCycles > 0 {
		r.HitRate = float64(p.windowHits) / float64(p.windowCycles)
	}

	r.Operations = make([]TimeTracker, 0, len(p.operationTimes))
	for _, t := range p.operationTimes {
		r.Operations = append(r.Operations, *t)
	}
	sort.Slice(r.Operations, func(i, j int) bool {
		return r.Operations[i].Name < r.Operations[j].Name
	})
	return r
}

// MaybeReport logs a report when the report interval has elapsed since the
// previous one and starts a new window.
//
// Returns:
//   - bool: true if a report was emitted.
func (p *CycleProfiler) MaybeReport() bool {
	if p == nil || p.reportInterval < 0 {
		return false
	}
	p.mu.Lock()
	now := p.now()
	if now.Sub(p.lastReport) < p.reportInterval {
		p.mu.Unlock()
		return false
	}
	report := p.snapshotLocked(now)
	p.lastReport = now
	p.windowCycles = 0
	p.windowHits = 0
	p.mu.Unlock()

	attrs := []any{
		"uptime", report.Uptime.Round(time.Second),
		"cycles", report.Cycles,
		"hits", report.Hits,
		"fps", report.FPS,
		"hit_rate", report.HitRate,
	}
	for _, op := range report.Operations {
		attrs = append(attrs, slog.Group(op.Name,
			"avg", op.Average(),
			"min", op.MinTime,
			"max", op.MaxTime,
		))
	}
	p.logger.Info("detection stats", attrs...)
	return true
}
