package traverse

// Kernel is a per-segment sink. The driver resets it once per track (once per
// z-stack in by-stack mode) and feeds it every emitted segment in ray order.
// Kernels are worker-local: one instance per worker, never shared.
type Kernel interface {
	// NewTrack resets the kernel for the next track.
	NewTrack(t Track)
	// Execute consumes one segment.
	Execute(length float64, mat *Material, regionID, stackIndex, surfaceFwd, surfaceBwd int)
	// Count reports the number of segments consumed since the last NewTrack.
	Count() int
}

// TwoWayKernel extends Kernel with the direction hooks a two-way sweep needs.
type TwoWayKernel interface {
	Kernel
	// SetDirection announces the direction of the next pass over a z-stack.
	SetDirection(forward bool)
	// DirectionComplete marks the end of one directional pass.
	DirectionComplete()
}

// KernelFactory builds one kernel per worker. The scratch buffer is the
// worker's segment buffer; kernels that materialise segments write into it,
// counting kernels may ignore it.
type KernelFactory func(scratch *SegmentBuffer) Kernel

// SegmentBuffer is a worker-owned scratch buffer for on-the-fly segments.
// It is reset track-to-track and reused for the whole sweep, so steady-state
// traversal allocates nothing.
type SegmentBuffer struct {
	segs []Segment
}

// NewSegmentBuffer returns a buffer with room for reserve segments before
// regrowth.
func NewSegmentBuffer(reserve int) *SegmentBuffer {
	return &SegmentBuffer{segs: make([]Segment, 0, reserve)}
}

// Reset empties the buffer, keeping its capacity.
func (b *SegmentBuffer) Reset() { b.segs = b.segs[:0] }

// Append adds one segment.
func (b *SegmentBuffer) Append(s Segment) { b.segs = append(b.segs, s) }

// Segments returns the segments accumulated since the last Reset. The slice
// is only valid until the next Reset.
func (b *SegmentBuffer) Segments() []Segment { return b.segs }

// Len returns the number of buffered segments.
func (b *SegmentBuffer) Len() int { return len(b.segs) }

// CounterKernel counts segments without storing them. It is the cheapest way
// to size segment storage before an explicit-mode sweep.
type CounterKernel struct {
	count int
}

// NewCounterKernel returns a fresh counting kernel.
func NewCounterKernel() *CounterKernel { return &CounterKernel{} }

func (k *CounterKernel) NewTrack(Track) { k.count = 0 }

func (k *CounterKernel) Execute(length float64, mat *Material, regionID, stackIndex, surfaceFwd, surfaceBwd int) {
	k.count++
}

func (k *CounterKernel) Count() int { return k.count }

// SegmentationKernel materialises segments into the worker scratch buffer in
// ray order. In by-stack mode the buffer accumulates segments for the whole
// stack, each carrying its stack-local index.
type SegmentationKernel struct {
	buf   *SegmentBuffer
	count int
}

// NewSegmentationKernel returns a kernel writing into scratch.
func NewSegmentationKernel(scratch *SegmentBuffer) *SegmentationKernel {
	return &SegmentationKernel{buf: scratch}
}

func (k *SegmentationKernel) NewTrack(Track) {
	k.count = 0
	k.buf.Reset()
}

func (k *SegmentationKernel) Execute(length float64, mat *Material, regionID, stackIndex, surfaceFwd, surfaceBwd int) {
	k.buf.Append(Segment{
		Length:     length,
		Material:   mat,
		RegionID:   regionID,
		StackIndex: stackIndex,
		SurfaceFwd: surfaceFwd,
		SurfaceBwd: surfaceBwd,
	})
	k.count++
}

func (k *SegmentationKernel) Count() int { return k.count }

// VolumeKernel tallies track length per flat region: the standard estimator
// of region volumes from a track sweep. Tallies are worker-local; merge the
// per-worker kernels after the sweep with MergeInto.
type VolumeKernel struct {
	count   int
	weight  float64
	volumes map[int]float64
}

// NewVolumeKernel returns a tally kernel with the given quadrature weight
// applied to every segment length.
func NewVolumeKernel(weight float64) *VolumeKernel {
	return &VolumeKernel{weight: weight, volumes: make(map[int]float64)}
}

func (k *VolumeKernel) NewTrack(Track) { k.count = 0 }

func (k *VolumeKernel) Execute(length float64, mat *Material, regionID, stackIndex, surfaceFwd, surfaceBwd int) {
	k.volumes[regionID] += length * k.weight
	k.count++
}

func (k *VolumeKernel) Count() int { return k.count }

// Volumes returns the worker-local tallies keyed by flat-region id.
func (k *VolumeKernel) Volumes() map[int]float64 { return k.volumes }

// MergeInto folds this kernel's tallies into dst.
func (k *VolumeKernel) MergeInto(dst map[int]float64) {
	for id, v := range k.volumes {
		dst[id] += v
	}
}
