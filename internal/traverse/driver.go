package traverse

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/moclab/traverse/internal/monitoring"
)

// TrackFunc is the per-track callback: invoked exactly once per track (once
// per z-stack in by-stack mode) after all of its segments are available. The
// segments slice aliases either stored track segments (explicit modes) or the
// worker's scratch buffer (on-the-fly modes), and is only valid for the
// duration of the call.
type TrackFunc func(w *WorkerContext, track Track, segments []Segment)

// Options configures a Traverser.
type Options struct {
	// Formation selects the segment-formation mode, fixed for the sweep.
	Formation SegmentFormation
	// Workers is the fixed worker-pool size; 0 means runtime.NumCPU().
	Workers int
	// ScratchReserve pre-sizes each worker's scratch segment buffer.
	ScratchReserve int
	// Kernels builds one kernel per worker. May be nil for explicit modes,
	// in which case only OnTrack is applied; the on-the-fly modes require it.
	Kernels KernelFactory
	// OnTrack is the per-track callback. May be nil.
	OnTrack TrackFunc
}

// Traverser sweeps a model's track set, dispatching on the configured
// segment-formation mode and fanning the outer 2D-track index out across a
// fixed worker pool. Workers never share kernels or scratch buffers; all
// shared state is read-only during a sweep.
type Traverser struct {
	model     *Model
	formation SegmentFormation
	workers   int
	reserve   int
	factory   KernelFactory
	onTrack   TrackFunc

	lastSweep *monitoring.Sweep
}

// New validates the mode/model combination and returns a ready Traverser.
// All configuration errors surface here, before any sweep begins.
func New(model *Model, opts Options) (*Traverser, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrBadModel)
	}
	if opts.Formation != Explicit2D && model.Kind != KindExtruded3D {
		return nil, fmt.Errorf("%w: %s traversal of a flat model",
			ErrBadFormation, opts.Formation)
	}
	if (opts.Formation == OTFTracks || opts.Formation == OTFStacks) && opts.Kernels == nil {
		return nil, fmt.Errorf("%w: %s requires a kernel factory",
			ErrBadFormation, opts.Formation)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	reserve := opts.ScratchReserve
	if reserve <= 0 {
		reserve = 256
	}
	return &Traverser{
		model:     model,
		formation: opts.Formation,
		workers:   workers,
		reserve:   reserve,
		factory:   opts.Kernels,
		onTrack:   opts.OnTrack,
	}, nil
}

// LoopOverTracks runs one complete sweep in the configured formation mode.
// It returns the first traversal error, if any; a sweep either completes or
// aborts, there is no partial-retry path.
func (t *Traverser) LoopOverTracks() error {
	sweep := monitoring.NewSweep(t.formation.String())
	t.lastSweep = sweep

	var fn func(ctx *WorkerContext, job int) error
	switch t.formation {
	case Explicit2D:
		fn = t.loopTracks2D
	case Explicit3D:
		fn = t.loopTracksExplicit
	case OTFTracks:
		fn = t.loopTracksByTrackOTF
	case OTFStacks:
		fn = t.loopTracksByStackOTF
	default:
		return fmt.Errorf("%w: unknown formation %d", ErrBadFormation, t.formation)
	}

	err := t.run(t.model.Num2DTracks(), fn)
	sweep.LogSummary(err)
	return err
}

// LoopOverTracksTwoWay runs one forward+backward sweep of every z-stack.
// Only legal in by-stack mode with kernels implementing TwoWayKernel; both
// conditions are checked before any work begins.
func (t *Traverser) LoopOverTracksTwoWay() error {
	if t.formation != OTFStacks {
		return fmt.Errorf("%w: two-way traversal is only implemented for by-stack segmentation, not %s",
			ErrBadFormation, t.formation)
	}
	probe := t.factory(NewSegmentBuffer(0))
	if _, ok := probe.(TwoWayKernel); !ok {
		return fmt.Errorf("%w: two-way traversal requires kernels implementing TwoWayKernel",
			ErrBadFormation)
	}

	sweep := monitoring.NewSweep(t.formation.String() + "-two-way")
	t.lastSweep = sweep
	err := t.run(t.model.Num2DTracks(), t.loopTracksTwoWay)
	sweep.LogSummary(err)
	return err
}

// SweepStats reports the counters of the most recent sweep.
func (t *Traverser) SweepStats() monitoring.SweepSnapshot {
	if t.lastSweep == nil {
		return monitoring.SweepSnapshot{}
	}
	return t.lastSweep.Snapshot()
}

// run fans numJobs out across the worker pool. Each worker owns one
// WorkerContext for the whole sweep; jobs are claimed from a shared atomic
// cursor so uneven tracks cannot stall a worker. The first error stops the
// sweep: remaining workers drain on their next claim.
func (t *Traverser) run(numJobs int, fn func(ctx *WorkerContext, job int) error) error {
	workers := t.workers
	if workers > numJobs {
		workers = numJobs
	}
	if workers < 1 {
		workers = 1
	}

	var (
		next     atomic.Int64
		failed   atomic.Bool
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			ctx := newWorkerContext(id, t.factory, t.reserve)
			for {
				if failed.Load() {
					return
				}
				job := int(next.Add(1)) - 1
				if job >= numJobs {
					return
				}
				if err := fn(ctx, job); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					failed.Store(true)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	return firstErr
}

// loopTracks2D replays stored 2D segments for one flattened 2D track.
func (t *Traverser) loopTracks2D(ctx *WorkerContext, job int) error {
	flat := t.model.Flattened2D(job)
	if ctx.Kernel != nil {
		ctx.Kernel.NewTrack(flat)
		traceExplicit(flat.Segments, ctx.Kernel)
		t.lastSweep.AddSegments(ctx.Kernel.Count())
	}
	t.lastSweep.AddTrack()
	if t.onTrack != nil {
		t.onTrack(ctx, flat, flat.Segments)
	}
	return nil
}

// loopTracksExplicit replays stored 3D segments for every 3D track over one
// flattened 2D track.
func (t *Traverser) loopTracksExplicit(ctx *WorkerContext, job int) error {
	flat := t.model.Flattened2D(job)
	a, i := flat.AzimIndex, flat.XYIndex
	for p := 0; p < t.model.NumPolar; p++ {
		for z := 0; z < t.model.StackSize(a, i, p); z++ {
			track3D := &t.model.Tracks3D[a][i][p][z]
			if ctx.Kernel != nil {
				ctx.Kernel.NewTrack(track3D)
				traceExplicit(track3D.Segments, ctx.Kernel)
				t.lastSweep.AddSegments(ctx.Kernel.Count())
			}
			t.lastSweep.AddTrack()
			if t.onTrack != nil {
				t.onTrack(ctx, track3D, track3D.Segments)
			}
		}
	}
	return nil
}

// loopTracksByTrackOTF segments every 3D track over one flattened 2D track
// on the fly, one track at a time. The per-track segment count is written
// back onto the 3D track exactly once.
func (t *Traverser) loopTracksByTrackOTF(ctx *WorkerContext, job int) error {
	flat := t.model.Flattened2D(job)
	a, i := flat.AzimIndex, flat.XYIndex
	for p := 0; p < t.model.NumPolar; p++ {
		for z := 0; z < t.model.StackSize(a, i, p); z++ {
			track3D := &t.model.Tracks3D[a][i][p][z]
			ctx.Kernel.NewTrack(track3D)
			if err := t.traceTrackOTF(flat, track3D.Start, track3D.Theta, ctx.Kernel); err != nil {
				return err
			}
			track3D.NumSegments = ctx.Kernel.Count()
			t.lastSweep.AddTrack()
			t.lastSweep.AddSegments(track3D.NumSegments)
			if t.onTrack != nil {
				t.onTrack(ctx, track3D, ctx.Scratch.Segments())
			}
		}
	}
	return nil
}

// loopTracksByStackOTF segments a whole z-stack per (2D track, polar angle)
// pair in one call; the callback fires once per stack, against the first
// track of the stack and the shared scratch buffer.
func (t *Traverser) loopTracksByStackOTF(ctx *WorkerContext, job int) error {
	flat := t.model.Flattened2D(job)
	a, i := flat.AzimIndex, flat.XYIndex
	for p := 0; p < t.model.NumPolar; p++ {
		if t.model.StackSize(a, i, p) == 0 {
			continue
		}
		first := &t.model.Tracks3D[a][i][p][0]
		ctx.Kernel.NewTrack(first)
		if err := t.traceStackOTF(flat, p, ctx.Kernel); err != nil {
			return err
		}
		first.NumSegments = ctx.Kernel.Count()
		t.lastSweep.AddTrack()
		t.lastSweep.AddSegments(first.NumSegments)
		if t.onTrack != nil {
			t.onTrack(ctx, first, ctx.Scratch.Segments())
		}
	}
	return nil
}

// loopTracksTwoWay drives the forward+backward stack trace per (2D track,
// polar angle) pair.
func (t *Traverser) loopTracksTwoWay(ctx *WorkerContext, job int) error {
	flat := t.model.Flattened2D(job)
	a, i := flat.AzimIndex, flat.XYIndex
	kernel := ctx.Kernel.(TwoWayKernel)
	for p := 0; p < t.model.NumPolar; p++ {
		if t.model.StackSize(a, i, p) == 0 {
			continue
		}
		first := &t.model.Tracks3D[a][i][p][0]
		kernel.NewTrack(first)
		if err := t.traceStackTwoWay(flat, p, kernel); err != nil {
			return err
		}
		first.NumSegments = kernel.Count()
		t.lastSweep.AddTrack()
		t.lastSweep.AddSegments(first.NumSegments)
		if t.onTrack != nil {
			t.onTrack(ctx, first, ctx.Scratch.Segments())
		}
	}
	return nil
}
