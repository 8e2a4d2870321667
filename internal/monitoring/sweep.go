package monitoring

import (
	"sync/atomic"
	"time"
)

// Sweep accumulates counters for one traversal sweep. All methods are safe
// for concurrent use from traversal workers.
type Sweep struct {
	mode     string
	started  time.Time
	tracks   atomic.Int64
	segments atomic.Int64
}

// SweepSnapshot is a point-in-time copy of a sweep's counters.
type SweepSnapshot struct {
	Mode     string
	Tracks   int64
	Segments int64
	Elapsed  time.Duration
}

// NewSweep starts counting a sweep running in the named formation mode.
func NewSweep(mode string) *Sweep {
	return &Sweep{mode: mode, started: time.Now()}
}

// AddTrack counts one traversed track.
func (s *Sweep) AddTrack() { s.tracks.Add(1) }

// AddSegments counts n emitted segments.
func (s *Sweep) AddSegments(n int) { s.segments.Add(int64(n)) }

// Snapshot returns the current counter values.
func (s *Sweep) Snapshot() SweepSnapshot {
	return SweepSnapshot{
		Mode:     s.mode,
		Tracks:   s.tracks.Load(),
		Segments: s.segments.Load(),
		Elapsed:  time.Since(s.started),
	}
}

// LogSummary writes a one-line sweep summary through Logf.
func (s *Sweep) LogSummary(err error) {
	snap := s.Snapshot()
	if err != nil {
		Logf("sweep %s aborted after %v: %v", snap.Mode, snap.Elapsed, err)
		return
	}
	Logf("sweep %s: %d tracks, %d segments in %v",
		snap.Mode, snap.Tracks, snap.Segments, snap.Elapsed)
}
