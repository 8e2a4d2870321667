package traverse

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// The per-track and by-stack segmenters implement the same geometry by
// different algorithms — an adaptive walk versus closed-form interval
// arithmetic. For every (2D track, polar angle, stack index) they must emit
// identical segment-length sequences and identical surface tags.
func TestCrossValidateTrackVsStack(t *testing.T) {
	cases := []modelSpec{
		// The reference scenario.
		referenceSpec(),
		// Climbing through a fine mesh with several tracks per stack.
		{
			segLens:   []float64{3.0, 4.0},
			regionIDs: []int{1, 2},
			surfFwd:   []int{5, 7},
			surfBwd:   []int{6, 8},
			mesh:      []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			globalZ:   true,
			theta:     math.Pi / 3,
			z0:        0.25,
			numStack:  4,
			zSpacing:  1.25,
		},
		// Steep track: many combined crossings per 2D segment.
		{
			segLens:   []float64{2.0, 1.0, 4.0},
			regionIDs: []int{1, 2, 3},
			mesh:      []float64{0, 0.5, 1, 1.5, 2, 4, 6, 8, 16},
			globalZ:   true,
			theta:     math.Pi / 6,
			z0:        0.1,
			numStack:  3,
			zSpacing:  2.0,
		},
		// Descending stack on a non-uniform mesh.
		{
			segLens:   []float64{3.0, 4.0},
			regionIDs: []int{1, 2},
			surfFwd:   []int{5, 7},
			surfBwd:   []int{6, 8},
			mesh:      []float64{0, 0.75, 2, 3.5, 6},
			globalZ:   true,
			theta:     2.2,
			z0:        4.5,
			numStack:  3,
			zSpacing:  0.5,
		},
		// Per-region meshes instead of a global mesh.
		{
			segLens:   []float64{3.0, 4.0},
			regionIDs: []int{1, 2},
			mesh:      []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
			globalZ:   false,
			theta:     math.Pi / 4,
			z0:        0.5,
			numStack:  2,
			zSpacing:  1.0,
		},
		// Shallow track: whole stack lives in full ranges.
		{
			segLens:   []float64{0.5, 0.25, 0.5},
			regionIDs: []int{1, 2, 1},
			surfFwd:   []int{5, 7, 9},
			surfBwd:   []int{6, 8, 4},
			mesh:      []float64{0, 10},
			globalZ:   true,
			theta:     1.55,
			z0:        2.0,
			numStack:  5,
			zSpacing:  0.5,
		},
	}

	for ci, spec := range cases {
		for _, withCmfd := range []bool{false, true} {
			spec := spec
			if withCmfd {
				spec.cmfd = &axialCoarseMesh{boundaries: spec.mesh}
			}
			name := fmt.Sprintf("case%d/cmfd=%v", ci, withCmfd)
			t.Run(name, func(t *testing.T) {
				m := buildModel(t, spec)
				stackSegs := traceOneStackOTF(t, m)

				for z := 0; z < spec.numStack; z++ {
					byTrack := traceOneTrackOTF(t, m, z)
					byStack := stackSlice(stackSegs, z)

					if diff := cmp.Diff(byTrack, byStack,
						cmpopts.EquateApprox(0, lenTol),
						cmpopts.EquateEmpty()); diff != "" {
						t.Errorf("stack index %d: by-track vs by-stack mismatch (-track +stack):\n%s",
							z, diff)
					}
				}
			})
		}
	}
}
