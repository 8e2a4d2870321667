package traverse

import (
	"fmt"
	"math"
)

// traceTrackOTF reconstructs the ordered 3D segments of one 3D track from its
// flattened 2D track, the 3D start point and the polar angle, feeding each
// segment to the kernel as it is found. Distances alternate between the
// in-plane 2D frame and the 3D arc frame through sin/cos theta; at every step
// the track advances by the nearer of the next axial boundary and the end of
// the current 2D segment.
func (t *Traverser) traceTrackOTF(flat *Track2D, start Point3, theta float64, k Kernel) error {
	phi := flat.Phi
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)
	sign := signOf(cosTheta)

	// In-plane distance from the 2D track start to the 3D start point.
	startDist2D := (start.X - flat.Start.X) / math.Cos(phi)
	z := start.Z

	// Walk to the 2D segment containing the start point. Per-track segment
	// counts are small, so a linear scan beats a search here.
	segStart := 0
	for s := 0; s < len(flat.Segments); s++ {
		segLen2D := flat.Segments[s].Length
		if startDist2D > segLen2D {
			startDist2D -= segLen2D
			segStart++
		} else {
			break
		}
	}
	if segStart >= len(flat.Segments) {
		return nil
	}

	geom := t.model.Geometry
	cmfd := geom.CoarseMesh()

	// Starting mesh: the shared global mesh when present, else the mesh of
	// the first crossed extruded region.
	globalMesh := t.model.GlobalZMesh != nil
	var mesh []float64
	if globalMesh {
		mesh = t.model.GlobalZMesh
	} else {
		region := geom.ExtrudedRegion(flat.Segments[segStart].RegionID)
		mesh = region.Mesh
	}

	zInd, err := FindMeshIndex(mesh, z, sign)
	if err != nil {
		return fmt.Errorf("locating start of track (%d,%d): %w", flat.AzimIndex, flat.XYIndex, err)
	}

	firstSegment := true
	complete := false
	for s := segStart; s < len(flat.Segments); s++ {
		seg2D := &flat.Segments[s]
		region := geom.ExtrudedRegion(seg2D.RegionID)

		// Per-region meshes must be refreshed, and the axial index relocated,
		// every time the 2D segment changes.
		if firstSegment || globalMesh {
			firstSegment = false
		} else {
			mesh = region.Mesh
			zInd, err = FindMeshIndex(mesh, z, sign)
			if err != nil {
				return fmt.Errorf("crossing into region %d on track (%d,%d): %w",
					seg2D.RegionID, flat.AzimIndex, flat.XYIndex, err)
			}
		}
		numCells := len(mesh) - 1

		remaining2D := seg2D.Length - startDist2D
		startDist2D = 0

		for remaining2D > 0 {
			// 3D distance to the next axial boundary in the travel direction.
			var zDist3D float64
			if sign > 0 {
				zDist3D = (mesh[zInd+1] - z) / cosTheta
			} else {
				zDist3D = (mesh[zInd] - z) / cosTheta
			}

			// 3D distance to the end of the current 2D segment.
			segDist3D := remaining2D / sinTheta

			var dist2D, dist3D float64
			var zMove int
			if zDist3D <= segDist3D {
				dist2D = zDist3D * sinTheta
				dist3D = zDist3D
				zMove = sign
			} else {
				dist2D = remaining2D
				dist3D = segDist3D
				zMove = 0
			}

			fsr := region.RegionIDs[zInd]

			surfaceFwd := SurfaceNone
			surfaceBwd := SurfaceNone
			if dist3D > TinyMove {
				// The first piece cut from a 2D segment inherits its backward
				// surface, the last piece its forward surface; interior
				// boundary crossings start from no guess. Inheritance does not
				// depend on coarse-mesh coupling; only the refinement does.
				if seg2D.Length-remaining2D <= TinyMove {
					surfaceBwd = seg2D.SurfaceBwd
				}
				nextDist3D := (remaining2D - dist2D) / sinTheta
				if zMove == 0 || nextDist3D <= TinyMove {
					surfaceFwd = seg2D.SurfaceFwd
				}
			}

			if cmfd != nil && dist3D > TinyMove {
				cell := cmfd.Cell(fsr)
				surfaceBwd = cmfd.SurfaceOTF(cell, z, surfaceBwd)
				z += cosTheta * dist3D
				surfaceFwd = cmfd.SurfaceOTF(cell, z, surfaceFwd)
			} else {
				z += dist3D * cosTheta
			}

			if dist3D > TinyMove {
				k.Execute(dist3D, region.Materials[zInd], fsr, 0, surfaceFwd, surfaceBwd)
			}

			remaining2D -= dist2D
			zInd += zMove

			// Leaving the valid axial span ends the track early; clamp the
			// index and stop.
			if zInd < 0 || zInd >= numCells {
				if zInd < 0 {
					zInd = 0
				} else {
					zInd = numCells - 1
				}
				complete = true
				break
			}
		}

		if complete {
			break
		}
	}
	return nil
}
