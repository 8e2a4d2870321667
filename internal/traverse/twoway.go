package traverse

// traceStackTwoWay sweeps one z-stack forward and then backward, notifying
// the kernel of each direction change. The backward pass runs against a
// reflected view of the stack — endpoints swapped, polar angle pi-theta,
// in-plane angle pi+phi, 2D segments reversed with their surface tags
// swapped — built into local temporaries. Shared track state is never
// mutated, so stacks can be traced two-way from multiple workers as long as
// each stack has a single owner, and there is no restore step to get wrong.
func (t *Traverser) traceStackTwoWay(flat *Track2D, polarIndex int, k TwoWayKernel) error {
	a := flat.AzimIndex
	i := flat.XYIndex
	first := &t.model.Tracks3D[a][i][polarIndex][0]
	numStack := t.model.StackSize(a, i, polarIndex)
	zSpacing := t.model.ZSpacing[a][polarIndex]

	forward := stackRef{
		flat:     flat,
		theta:    first.Theta,
		startX:   first.Start.X,
		startZ:   first.Start.Z,
		numStack: numStack,
		zSpacing: zSpacing,
	}

	k.SetDirection(true)
	if err := t.traceStack(forward, k); err != nil {
		return err
	}
	k.DirectionComplete()

	backward := stackRef{
		flat:     reflect2D(flat),
		theta:    reflectAngle3D(first.Theta),
		startX:   first.End.X,
		startZ:   first.End.Z,
		numStack: numStack,
		zSpacing: zSpacing,
	}

	k.SetDirection(false)
	if err := t.traceStack(backward, k); err != nil {
		return err
	}
	k.DirectionComplete()

	return nil
}

// reflect2D returns a local copy of a 2D track as seen travelling the other
// way: swapped endpoints, reflected in-plane angle, segment order reversed,
// and forward/backward surface tags exchanged on every segment.
func reflect2D(flat *Track2D) *Track2D {
	n := len(flat.Segments)
	segs := make([]Segment, n)
	for s := 0; s < n; s++ {
		seg := flat.Segments[n-s-1]
		seg.SurfaceFwd, seg.SurfaceBwd = seg.SurfaceBwd, seg.SurfaceFwd
		segs[s] = seg
	}
	return &Track2D{
		AzimIndex: flat.AzimIndex,
		XYIndex:   flat.XYIndex,
		Start:     flat.End,
		End:       flat.Start,
		Phi:       reflectAngle2D(flat.Phi),
		Segments:  segs,
	}
}
