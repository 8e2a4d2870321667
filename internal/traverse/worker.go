package traverse

// WorkerContext bundles the per-worker traversal state: one kernel and one
// scratch segment buffer, both alive for exactly one sweep and never shared
// across workers. The driver constructs one context per worker at the start
// of a sweep and drops them all when the sweep ends, so kernel ownership
// rests with the driver for the call's duration.
type WorkerContext struct {
	ID      int
	Kernel  Kernel
	Scratch *SegmentBuffer
}

// newWorkerContext builds one worker's context. A nil factory leaves the
// kernel unset, which the explicit replay modes allow.
func newWorkerContext(id int, factory KernelFactory, reserve int) *WorkerContext {
	ctx := &WorkerContext{ID: id, Scratch: NewSegmentBuffer(reserve)}
	if factory != nil {
		ctx.Kernel = factory(ctx.Scratch)
	}
	return ctx
}
