// Package stats aggregates latencies and outcomes of repeated requests.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range in microseconds: 1µs to 1 hour, 3 significant figures.
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Summary is a snapshot of a Recorder.
type Summary struct {
	Requests  int64
	Successes int64
	Failures  int64
	Errors    int64
	Statuses  map[int]int64

	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration

	Elapsed time.Duration
	RPS     float64

	// Pacing is the gap enforced between dispatches; zero when unpaced.
	// The recorder never sets it.
	Pacing time.Duration
}

// Recorder collects one observation per completed request.
// Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	statuses map[int]int64
	success  int64
	failure  int64
	errors   int64
	start    time.Time
}

// NewRecorder creates an empty recorder and starts its wall clock.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:     hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statuses: make(map[int]int64),
		start:    time.Now(),
	}
}

// Record adds a completed request. A non-nil err counts as an error and its
// latency is still recorded; success marks a status 200 response.
func (r *Recorder) Record(latency time.Duration, status int, success bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := latency.Microseconds()
	if us < histogramMin {
		us = histogramMin
	}
	// Values above the range are clamped rather than dropped.
	if us > histogramMax {
		us = histogramMax
	}
	_ = r.hist.RecordValue(us)

	switch {
	case err != nil:
		r.errors++
	case success:
		r.success++
		r.statuses[status]++
	default:
		r.failure++
		r.statuses[status]++
	}
}

// Summary returns the current aggregate.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make(map[int]int64, len(r.statuses))
	for k, v := range r.statuses {
		statuses[k] = v
	}

	s := Summary{
		Requests:  r.hist.TotalCount(),
		Successes: r.success,
		Failures:  r.failure,
		Errors:    r.errors,
		Statuses:  statuses,
		Elapsed:   time.Since(r.start),
	}
	if s.Requests == 0 {
		return s
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	s.Min = us(r.hist.Min())
	s.Mean = time.Duration(r.hist.Mean() * float64(time.Microsecond))
	s.P50 = us(r.hist.ValueAtQuantile(50))
	s.P90 = us(r.hist.ValueAtQuantile(90))
	s.P95 = us(r.hist.ValueAtQuantile(95))
	s.P99 = us(r.hist.ValueAtQuantile(99))
	s.Max = us(r.hist.Max())
	if s.Elapsed > 0 {
		s.RPS = float64(s.Requests) / s.Elapsed.Seconds()
	}
	return s
}
