package traverse

import (
	"fmt"
	"math"
)

// Model is the read-only track and mesh state one sweep runs against. The
// host's track generation builds it once; traversal never mutates it apart
// from the per-track segment-count write-back.
//
// Index conventions follow the track containers: Tracks2D[a][i] is the i-th
// parallel track of azimuthal angle a; Tracks3D[a][i][p][z] is the z-th track
// of the stack over Tracks2D[a][i] at polar angle p; TracksPerStack[a][i][p]
// is that stack's size; ZSpacing[a][p] is the vertical offset between
// consecutive stack tracks.
type Model struct {
	Kind     GeometryKind
	Geometry Geometry

	Tracks2D       [][]Track2D
	Tracks3D       [][][][]Track3D
	TracksPerStack [][][]int
	NumPolar       int
	ZSpacing       [][]float64

	// GlobalZMesh, when non-nil, is the single axial mesh shared by every
	// extruded region and replaces per-region meshes everywhere.
	GlobalZMesh []float64

	flattened []*Track2D
}

// NewModel validates the track and mesh state and freezes the geometry kind.
func NewModel(geom Geometry, tracks2D [][]Track2D) (*Model, error) {
	if geom == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrBadModel)
	}
	if len(tracks2D) == 0 {
		return nil, fmt.Errorf("%w: no 2D tracks", ErrBadModel)
	}
	m := &Model{
		Kind:     KindFlat,
		Geometry: geom,
		Tracks2D: tracks2D,
	}
	m.rebuildFlattened()
	return m, nil
}

// Attach3D installs the 3D track containers and switches the model to
// extruded-3D traversal. The perpendicular-polar-angle precondition is
// checked here, at the track-generation boundary, because the axial-index
// sign convention downstream cannot express cos theta == 0.
func (m *Model) Attach3D(tracks3D [][][][]Track3D, perStack [][][]int, numPolar int, zSpacing [][]float64) error {
	for a := range tracks3D {
		for i := range tracks3D[a] {
			for p := range tracks3D[a][i] {
				for z := range tracks3D[a][i][p] {
					cosTheta := math.Cos(tracks3D[a][i][p][z].Theta)
					if math.Abs(cosTheta) <= TinyMove {
						return fmt.Errorf("%w: track (%d,%d,%d,%d) has polar angle perpendicular to the z axis",
							ErrBadModel, a, i, p, z)
					}
				}
			}
		}
	}
	m.Kind = KindExtruded3D
	m.Tracks3D = tracks3D
	m.TracksPerStack = perStack
	m.NumPolar = numPolar
	m.ZSpacing = zSpacing
	return nil
}

// SetGlobalZMesh installs one shared axial mesh for the whole geometry.
func (m *Model) SetGlobalZMesh(mesh []float64) error {
	if err := checkMesh(mesh); err != nil {
		return err
	}
	m.GlobalZMesh = mesh
	return nil
}

// Validate re-checks the mesh invariants of every extruded region reachable
// through the 2D segments, plus the global mesh if present. Hosts call it
// once after model assembly; traversal assumes it has passed.
func (m *Model) Validate() error {
	if m.GlobalZMesh != nil {
		if err := checkMesh(m.GlobalZMesh); err != nil {
			return err
		}
	}
	seen := make(map[int]bool)
	for a := range m.Tracks2D {
		for i := range m.Tracks2D[a] {
			for _, seg := range m.Tracks2D[a][i].Segments {
				if seen[seg.RegionID] {
					continue
				}
				seen[seg.RegionID] = true
				r := m.Geometry.ExtrudedRegion(seg.RegionID)
				if r == nil {
					return fmt.Errorf("%w: 2D segment names unknown extruded region %d",
						ErrBadModel, seg.RegionID)
				}
				if err := checkMesh(r.Mesh); err != nil {
					return fmt.Errorf("extruded region %d: %w", seg.RegionID, err)
				}
				if len(r.Materials) != r.NumCells() || len(r.RegionIDs) != r.NumCells() {
					return fmt.Errorf("%w: extruded region %d has %d cells, %d materials, %d region ids",
						ErrBadModel, seg.RegionID, r.NumCells(), len(r.Materials), len(r.RegionIDs))
				}
			}
		}
	}
	return nil
}

func checkMesh(mesh []float64) error {
	if len(mesh) < 2 {
		return fmt.Errorf("%w: axial mesh needs at least two boundaries, got %d",
			ErrBadModel, len(mesh))
	}
	for i := 1; i < len(mesh); i++ {
		if mesh[i] <= mesh[i-1] {
			return fmt.Errorf("%w: axial mesh not strictly increasing at index %d (%g <= %g)",
				ErrBadModel, i, mesh[i], mesh[i-1])
		}
	}
	return nil
}

// Num2DTracks returns the flattened 2D track count.
func (m *Model) Num2DTracks() int { return len(m.flattened) }

// Flattened2D returns the 2D track at the given flattened index.
func (m *Model) Flattened2D(i int) *Track2D { return m.flattened[i] }

// StackSize returns the number of 3D tracks stacked over a 2D track at one
// polar angle.
func (m *Model) StackSize(azim, xy, polar int) int {
	return m.TracksPerStack[azim][xy][polar]
}

// regionMesh resolves the axial mesh tracing should use for a region: the
// global mesh when one exists, else the region's own.
func (m *Model) regionMesh(r *ExtrudedRegion) []float64 {
	if m.GlobalZMesh != nil {
		return m.GlobalZMesh
	}
	return r.Mesh
}

func (m *Model) rebuildFlattened() {
	m.flattened = m.flattened[:0]
	for a := range m.Tracks2D {
		for i := range m.Tracks2D[a] {
			m.flattened = append(m.flattened, &m.Tracks2D[a][i])
		}
	}
}
