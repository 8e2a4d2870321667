package traverse

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestTraceStackOTFReferenceScenario(t *testing.T) {
	// The by-stack segmenter run with stack size 1 must reproduce the
	// hand-derived reference sequence exactly.
	m := buildModel(t, referenceSpec())
	got := stackSlice(traceOneStackOTF(t, m), 0)

	sqrt2 := math.Sqrt2
	want := []Segment{
		{Length: 0.5 * sqrt2, RegionID: 10, SurfaceFwd: SurfaceNone, SurfaceBwd: 6},
		{Length: 1.0 * sqrt2, RegionID: 11, SurfaceFwd: SurfaceNone, SurfaceBwd: SurfaceNone},
	}
	if diff := cmp.Diff(want, got,
		cmpopts.EquateApprox(0, lenTol),
		cmpopts.IgnoreFields(Segment{}, "Material")); diff != "" {
		t.Errorf("stack reference scenario mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceStackOTFCombinedCrossings(t *testing.T) {
	// One long 2D segment rising through several unit cells: the first cell
	// is a partial-upper crossing, the interior cells are combined
	// crossings (both boundaries in one step), the last a partial-lower.
	m := buildModel(t, modelSpec{
		segLens:   []float64{3.0},
		regionIDs: []int{1},
		surfFwd:   []int{5},
		surfBwd:   []int{6},
		mesh:      []float64{0, 1, 2, 3, 4},
		globalZ:   true,
		theta:     math.Pi / 4,
		z0:        0.5,
		numStack:  1,
		zSpacing:  10,
	})
	got := traceOneStackOTF(t, m)

	sqrt2 := math.Sqrt2
	want := []Segment{
		{Length: 0.5 * sqrt2, RegionID: 10, SurfaceFwd: SurfaceNone, SurfaceBwd: 6},
		{Length: 1.0 * sqrt2, RegionID: 11, SurfaceFwd: SurfaceNone, SurfaceBwd: SurfaceNone},
		{Length: 1.0 * sqrt2, RegionID: 12, SurfaceFwd: SurfaceNone, SurfaceBwd: SurfaceNone},
		{Length: 0.5 * sqrt2, RegionID: 13, SurfaceFwd: 5, SurfaceBwd: SurfaceNone},
	}
	if diff := cmp.Diff(want, got,
		cmpopts.EquateApprox(0, lenTol),
		cmpopts.IgnoreFields(Segment{}, "Material")); diff != "" {
		t.Errorf("combined-crossing sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceStackOTFFullRange(t *testing.T) {
	// 2D segments much shorter than the cell height with a dense stack:
	// every track stays inside the single cell for the whole segment, so
	// the full range covers the stack and every length is constant.
	numStack := 3
	m := buildModel(t, modelSpec{
		segLens:   []float64{0.5, 0.5},
		regionIDs: []int{1, 2},
		surfFwd:   []int{5, 7},
		surfBwd:   []int{6, 8},
		mesh:      []float64{0, 10},
		globalZ:   true,
		theta:     math.Pi / 4,
		z0:        1.0,
		numStack:  numStack,
		zSpacing:  0.5,
	})
	got := traceOneStackOTF(t, m)

	if len(got) != 2*numStack {
		t.Fatalf("got %d segments, want %d", len(got), 2*numStack)
	}
	wantLen := 0.5 * math.Sqrt2
	// Per 2D segment, the full range emits in ascending stack order, with
	// the constant length and both 2D surfaces inherited.
	for j, s := range got {
		if math.Abs(s.Length-wantLen) > lenTol {
			t.Errorf("segment %d length = %g, want %g", j, s.Length, wantLen)
		}
		if s.StackIndex != j%numStack {
			t.Errorf("segment %d stack index = %d, want %d", j, s.StackIndex, j%numStack)
		}
	}
	for j := 0; j < numStack; j++ {
		if got[j].SurfaceFwd != 5 || got[j].SurfaceBwd != 6 {
			t.Errorf("segment %d surfaces = (%d,%d), want (5,6)",
				j, got[j].SurfaceFwd, got[j].SurfaceBwd)
		}
		if got[numStack+j].SurfaceFwd != 7 || got[numStack+j].SurfaceBwd != 8 {
			t.Errorf("segment %d surfaces = (%d,%d), want (7,8)",
				numStack+j, got[numStack+j].SurfaceFwd, got[numStack+j].SurfaceBwd)
		}
	}
}

func TestTraceStackOTFDescendingCellOrder(t *testing.T) {
	// For a descending stack the axial cells must be visited top-down so
	// segments reach the kernel in ray order.
	m := buildModel(t, modelSpec{
		segLens:   []float64{3.0},
		regionIDs: []int{1},
		mesh:      []float64{0, 1, 2, 3, 4},
		globalZ:   true,
		theta:     3 * math.Pi / 4,
		z0:        3.5,
		numStack:  1,
		zSpacing:  10,
	})
	got := traceOneStackOTF(t, m)

	wantRegions := []int{13, 12, 11, 10}
	if len(got) != len(wantRegions) {
		t.Fatalf("got %d segments, want %d", len(got), len(wantRegions))
	}
	for j, s := range got {
		if s.RegionID != wantRegions[j] {
			t.Errorf("segment %d region = %d, want %d", j, s.RegionID, wantRegions[j])
		}
	}

	// Fall covers z 3.5 -> 0.5.
	if drop := axialProjection(got, 3*math.Pi/4); math.Abs(drop+3.0) > lenTol {
		t.Errorf("axial projection = %g, want -3.0", drop)
	}
}

func TestTraceStackOTFStackTotals(t *testing.T) {
	// Across a whole stack, each track's in-plane projection reconstructs
	// the portion of the 2D track it covers before leaving the mesh; tracks
	// fully inside the mesh reconstruct the entire 2D length.
	theta := math.Pi / 3 // tan = sqrt(3), rise 7/sqrt(3) ~ 4.04 over the track
	m := buildModel(t, modelSpec{
		segLens:   []float64{3.0, 4.0},
		regionIDs: []int{1, 2},
		mesh:      []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		globalZ:   true,
		theta:     theta,
		z0:        0.5,
		numStack:  3,
		zSpacing:  1.0,
	})
	all := traceOneStackOTF(t, m)

	for i := 0; i < 3; i++ {
		segs := stackSlice(all, i)
		if l := planeProjection(segs, theta); math.Abs(l-7.0) > lenTol {
			t.Errorf("stack %d in-plane projection = %g, want 7", i, l)
		}
	}
}
