package traverse

import (
	"errors"
	"math"
	"testing"
)

func TestModelValidateRejectsBadMesh(t *testing.T) {
	spec := referenceSpec()
	m := buildModel(t, spec)

	// Break a region mesh after construction.
	m.Geometry.ExtrudedRegion(1).Mesh = []float64{0, 2, 1}
	m.GlobalZMesh = nil
	if err := m.Validate(); !errors.Is(err, ErrBadModel) {
		t.Errorf("Validate with non-increasing mesh = %v, want ErrBadModel", err)
	}
}

func TestSetGlobalZMeshRejectsBadMesh(t *testing.T) {
	m := buildModel(t, referenceSpec())
	for _, mesh := range [][]float64{{1}, {0, 0}, {0, 2, 2}, {3, 1}} {
		if err := m.SetGlobalZMesh(mesh); !errors.Is(err, ErrBadModel) {
			t.Errorf("SetGlobalZMesh(%v) = %v, want ErrBadModel", mesh, err)
		}
	}
}

func TestAttach3DRejectsPerpendicularTrack(t *testing.T) {
	m := buildModel(t, referenceSpec())
	bad := [][][][]Track3D{{{{{Theta: math.Pi / 2}}}}}
	err := m.Attach3D(bad, [][][]int{{{1}}}, 1, [][]float64{{1}})
	if !errors.Is(err, ErrBadModel) {
		t.Errorf("Attach3D with theta=pi/2 = %v, want ErrBadModel", err)
	}
}

func TestModelValidateRejectsUnknownRegion(t *testing.T) {
	spec := referenceSpec()
	m := buildModel(t, spec)
	m.Flattened2D(0).Segments[0].RegionID = 999
	if err := m.Validate(); !errors.Is(err, ErrBadModel) {
		t.Errorf("Validate with unknown region = %v, want ErrBadModel", err)
	}
}

func TestModelFlattening(t *testing.T) {
	m := multiTrackModel(t, 4)
	if m.Num2DTracks() != 4 {
		t.Fatalf("Num2DTracks = %d, want 4", m.Num2DTracks())
	}
	for i := 0; i < 4; i++ {
		if m.Flattened2D(i).XYIndex != i {
			t.Errorf("flattened track %d has XYIndex %d", i, m.Flattened2D(i).XYIndex)
		}
	}
	if m.Kind != KindExtruded3D {
		t.Errorf("Kind = %v, want KindExtruded3D", m.Kind)
	}
}
