// Package traverse implements the characteristic-track traversal engine: it
// walks 2D and 3D tracks across an extruded reactor model and produces, for
// every track, the ordered sequence of constant-material segments, either by
// replaying precomputed segments or by computing them on the fly from 2D
// track data and per-region axial meshes.
package traverse

import "math"

// TinyMove is the minimum segment length worth emitting. Steps at or below
// this length still advance traversal state but produce no segment, and
// boundary crossings within TinyMove of a 2D segment endpoint are treated as
// coincident with it.
const TinyMove = 1e-12

// SurfaceNone marks a segment face that touches no coarse-mesh surface.
const SurfaceNone = -1

// SegmentFormation selects how segments are produced during a sweep.
type SegmentFormation int

const (
	// Explicit2D replays precomputed segments on the 2D track set.
	Explicit2D SegmentFormation = iota
	// Explicit3D replays precomputed segments on the full 3D track set.
	Explicit3D
	// OTFTracks computes 3D segments on the fly, one 3D track at a time.
	OTFTracks
	// OTFStacks computes 3D segments on the fly for a whole z-stack at once.
	OTFStacks
)

func (f SegmentFormation) String() string {
	switch f {
	case Explicit2D:
		return "explicit-2d"
	case Explicit3D:
		return "explicit-3d"
	case OTFTracks:
		return "otf-tracks"
	case OTFStacks:
		return "otf-stacks"
	}
	return "unknown"
}

// ParseFormation maps the config-file spelling of a segment formation mode
// back to its enum value.
func ParseFormation(s string) (SegmentFormation, bool) {
	switch s {
	case "explicit-2d":
		return Explicit2D, true
	case "explicit-3d":
		return Explicit3D, true
	case "otf-tracks":
		return OTFTracks, true
	case "otf-stacks":
		return OTFStacks, true
	}
	return 0, false
}

// GeometryKind records once, at model construction, whether the model carries
// a 3D track set. It is never re-derived during traversal.
type GeometryKind int

const (
	KindFlat GeometryKind = iota
	KindExtruded3D
)

// Point3 is a position in the model, in cm.
type Point3 struct {
	X, Y, Z float64
}

// Material is an opaque material reference. The traversal engine only routes
// it; cross sections and physics live elsewhere.
type Material struct {
	ID   int
	Name string
}

// Segment is a constant-material sub-interval of a track. StackIndex is only
// meaningful for segments produced in by-stack mode, where one buffer holds
// segments for every track in the z-stack.
type Segment struct {
	Length     float64
	Material   *Material
	RegionID   int
	StackIndex int
	SurfaceFwd int
	SurfaceBwd int
}

// Track2D is a characteristic line through the flattened 2D model. Its
// RegionID per segment names the extruded region the segment crosses.
type Track2D struct {
	AzimIndex int
	XYIndex   int
	Start     Point3
	End       Point3
	Phi       float64
	Segments  []Segment
}

// StartPoint implements Track.
func (t *Track2D) StartPoint() Point3 { return t.Start }

// EndPoint implements Track.
func (t *Track2D) EndPoint() Point3 { return t.End }

// Length returns the in-plane length of the track as the sum of its segment
// lengths.
func (t *Track2D) Length() float64 {
	var sum float64
	for i := range t.Segments {
		sum += t.Segments[i].Length
	}
	return sum
}

// Track3D is a characteristic line through the full extruded model. Segments
// is populated only for explicit 3D segment formation; in the on-the-fly
// modes segments live in worker scratch buffers and only NumSegments is
// written back.
type Track3D struct {
	AzimIndex  int
	XYIndex    int
	PolarIndex int
	StackIndex int
	Start      Point3
	End        Point3
	Theta      float64

	NumSegments int
	Segments    []Segment
}

// StartPoint implements Track.
func (t *Track3D) StartPoint() Point3 { return t.Start }

// EndPoint implements Track.
func (t *Track3D) EndPoint() Point3 { return t.End }

// Track is the common handle kernels and callbacks receive for either track
// dimensionality.
type Track interface {
	StartPoint() Point3
	EndPoint() Point3
}

// ExtrudedRegion is a flat region extended axially: a strictly increasing
// mesh of cell boundaries with one material and one flat-region id per cell.
type ExtrudedRegion struct {
	ID        int
	Mesh      []float64
	Materials []*Material
	RegionIDs []int
}

// NumCells returns the number of axial cells in the region.
func (r *ExtrudedRegion) NumCells() int { return len(r.Mesh) - 1 }

// CoarseMesh resolves which face of a coarse coupling cell a crossing at a
// given axial height touches. Absent (nil) when coarse-mesh coupling is not
// configured.
type CoarseMesh interface {
	// Cell maps a flat-region id to its coarse cell.
	Cell(regionID int) int
	// SurfaceOTF refines a surface guess given the coarse cell and the exact
	// axial height of the crossing. The guess is the in-plane surface carried
	// by the 2D segment, or SurfaceNone.
	SurfaceOTF(cell int, z float64, guess int) int
}

// Geometry resolves extruded regions for the traversal engine. Region
// construction and spatial lookup belong to the host.
type Geometry interface {
	ExtrudedRegion(id int) *ExtrudedRegion
	// CoarseMesh returns nil when no coarse-mesh coupling is configured.
	CoarseMesh() CoarseMesh
}

// signOf reports the axial direction of a polar angle: +1 climbing, -1
// descending. Theta exactly perpendicular to the axis (cos theta == 0) is a
// model-validation error, not a traversal concern.
func signOf(cosTheta float64) int {
	if cosTheta > 0 {
		return 1
	}
	return -1
}

// reflectAngle2D returns the in-plane angle of a track traversed backwards.
func reflectAngle2D(phi float64) float64 { return math.Pi + phi }

// reflectAngle3D returns the polar angle of a track traversed backwards.
func reflectAngle3D(theta float64) float64 { return math.Pi - theta }
