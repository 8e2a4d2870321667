// Package report summarizes the segments produced by a traversal sweep and
// renders the summary as PNG plots and an HTML chart.
package report

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/moclab/traverse/internal/traverse"
)

// Summary holds aggregate statistics over segment lengths.
type Summary struct {
	Count       int
	TotalLength float64
	Mean        float64
	StdDev      float64
	Min         float64
	Max         float64
	Median      float64
}

// Summarize computes statistics over the given segment lengths.
func Summarize(lengths []float64) Summary {
	if len(lengths) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), lengths...)
	sort.Float64s(sorted)

	total := 0.0
	for _, l := range sorted {
		total += l
	}

	return Summary{
		Count:       len(sorted),
		TotalLength: total,
		Mean:        stat.Mean(sorted, nil),
		StdDev:      stat.StdDev(sorted, nil),
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Median:      stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// Collector accumulates segment data from sweep callbacks. Register its
// OnTrack method as the sweep's track callback; it is safe for concurrent
// use from traversal workers.
type Collector struct {
	mu      sync.Mutex
	lengths []float64
	volumes map[int]float64
	tracks  int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{volumes: make(map[int]float64)}
}

// OnTrack records the segments emitted for one track.
func (c *Collector) OnTrack(_ *traverse.WorkerContext, _ traverse.Track, segments []traverse.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tracks++
	for _, seg := range segments {
		c.lengths = append(c.lengths, seg.Length)
		c.volumes[seg.RegionID] += seg.Length
	}
}

// Tracks returns the number of tracks seen.
func (c *Collector) Tracks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracks
}

// Lengths returns a copy of the collected segment lengths.
func (c *Collector) Lengths() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.lengths...)
}

// Volumes returns a copy of the per-region accumulated track length. With
// uniform track weights this is proportional to the traced region volume.
func (c *Collector) Volumes() map[int]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]float64, len(c.volumes))
	for id, v := range c.volumes {
		out[id] = v
	}
	return out
}

// Summary summarizes the collected segment lengths.
func (c *Collector) Summary() Summary {
	return Summarize(c.Lengths())
}

// String renders the summary in one line for log output.
func (s Summary) String() string {
	return fmt.Sprintf("%d segments, total %.4g, mean %.4g ± %.4g, range [%.4g, %.4g], median %.4g",
		s.Count, s.TotalLength, s.Mean, s.StdDev, s.Min, s.Max, s.Median)
}
