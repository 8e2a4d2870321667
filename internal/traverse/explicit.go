package traverse

// traceExplicit replays a precomputed segment array through the kernel, in
// stored order, with no recomputation.
func traceExplicit(segments []Segment, k Kernel) {
	for i := range segments {
		seg := &segments[i]
		k.Execute(seg.Length, seg.Material, seg.RegionID, seg.StackIndex,
			seg.SurfaceFwd, seg.SurfaceBwd)
	}
}
