package traverse

import (
	"fmt"
	"math"
)

// stackRef is the read-only state one by-stack trace runs against: the
// flattened 2D track plus the reference (index 0) 3D track of the stack.
// Two-way traversal builds a reflected stackRef into local temporaries, so
// tracing never mutates shared track state.
type stackRef struct {
	flat     *Track2D
	theta    float64
	startX   float64
	startZ   float64
	numStack int
	zSpacing float64
}

// traceStackOTF computes, in one pass, the 3D segments of every track in the
// z-stack over one 2D track at one polar angle, feeding each segment to the
// kernel tagged with its stack-local index.
func (t *Traverser) traceStackOTF(flat *Track2D, polarIndex int, k Kernel) error {
	a := flat.AzimIndex
	i := flat.XYIndex
	first := &t.model.Tracks3D[a][i][polarIndex][0]
	ref := stackRef{
		flat:     flat,
		theta:    first.Theta,
		startX:   first.Start.X,
		startZ:   first.Start.Z,
		numStack: t.model.StackSize(a, i, polarIndex),
		zSpacing: t.model.ZSpacing[a][polarIndex],
	}
	return t.traceStack(ref, k)
}

// traceStack exploits that all tracks of a z-stack are vertical translates of
// the reference track: instead of walking each track, it intersects the
// reference track's z interval within each 2D segment against every axial
// cell, in closed form. Per cell that yields up to three disjoint stack-index
// ranges — tracks entering the cell mid-segment from below, tracks spanning
// the whole 2D segment inside the cell, and tracks leaving mid-segment above
// — plus a fourth combined case for tracks that cross the entire cell in one
// step, which can only occur when the full range is empty.
func (t *Traverser) traceStack(ref stackRef, k Kernel) error {
	flat := ref.flat
	cosTheta := math.Cos(ref.theta)
	sinTheta := math.Sin(ref.theta)
	tanTheta := sinTheta / cosTheta
	sign := signOf(cosTheta)
	absCos := math.Abs(cosTheta)
	trackSpacing3D := ref.zSpacing / absCos

	geom := t.model.Geometry
	cmfd := geom.CoarseMesh()
	refine := func(cell int, z float64, guess int) int {
		if cmfd == nil {
			return guess
		}
		return cmfd.SurfaceOTF(cell, z, guess)
	}

	// Project the reference track's start back along the 2D track to get the
	// z at which it enters the first 2D segment.
	startDist2D := (ref.startX - flat.Start.X) / math.Cos(flat.Phi)
	firstStartZ := ref.startZ - startDist2D/tanTheta

	for s := 0; s < len(flat.Segments); s++ {
		seg2D := &flat.Segments[s]
		segLen2D := seg2D.Length
		region := geom.ExtrudedRegion(seg2D.RegionID)
		mesh := t.model.regionMesh(region)
		numCells := len(mesh) - 1

		// z interval the reference track sweeps across this 2D segment.
		firstEndZ := firstStartZ + segLen2D/tanTheta
		var lowerZ, upperZ float64
		if sign > 0 {
			lowerZ = firstStartZ
			upperZ = firstEndZ
		} else {
			lowerZ = firstEndZ
			upperZ = firstStartZ
		}

		// Visit axial cells in ray-traversal order: bottom-up for climbing
		// stacks, top-down for descending ones, so segments reach the kernel
		// in ray order.
		for zIter := 0; zIter < numCells; zIter++ {
			zInd := zIter
			if sign < 0 {
				zInd = numCells - zIter - 1
			}

			fsr := region.RegionIDs[zInd]
			mat := region.Materials[zInd]
			cell := 0
			if cmfd != nil {
				cell = cmfd.Cell(fsr)
			}

			zMin := mesh[zInd]
			zMax := mesh[zInd+1]

			// Stack-index ranges crossing this cell, from interval
			// intersection of track i's span [lowerZ, upperZ] + i*zSpacing
			// with [zMin, zMax].
			startTrack := int(math.Ceil((zMin - upperZ) / ref.zSpacing))
			startFull := int(math.Ceil((zMin - lowerZ) / ref.zSpacing))
			endFull := int(math.Ceil((zMax - upperZ) / ref.zSpacing))
			endTrack := int(math.Ceil((zMax - lowerZ) / ref.zSpacing))

			if startTrack < 0 {
				startTrack = 0
			}
			if endTrack > ref.numStack {
				endTrack = ref.numStack
			}

			// Partial-lower range: tracks whose 2D-segment endpoint lies
			// inside the cell, having crossed zMin. Length grows linearly
			// with stack index. Every case range below is intersected with
			// [startTrack, endTrack): indices outside it name tracks that
			// do not exist in this stack.
			minLower := min(startFull, endFull)
			firstSegLen3D := (upperZ - zMin) / absCos
			for i := startTrack; i < min(minLower, endTrack); i++ {
				segLen3D := firstSegLen3D + float64(i)*trackSpacing3D
				if segLen3D <= TinyMove {
					continue
				}

				startZ := lowerZ + float64(i)*ref.zSpacing
				endZ := upperZ + float64(i)*ref.zSpacing
				distToCorner := math.Abs((zMin - startZ) / cosTheta)

				surfaceFwd := SurfaceNone
				surfaceBwd := SurfaceNone
				if sign > 0 {
					surfaceFwd = seg2D.SurfaceFwd
					surfaceFwd = refine(cell, endZ, surfaceFwd)
					if distToCorner <= TinyMove {
						surfaceBwd = seg2D.SurfaceBwd
					}
					surfaceBwd = refine(cell, zMin, surfaceBwd)
				} else {
					if distToCorner <= TinyMove {
						surfaceFwd = seg2D.SurfaceFwd
					}
					surfaceFwd = refine(cell, zMin, surfaceFwd)
					surfaceBwd = seg2D.SurfaceBwd
					surfaceBwd = refine(cell, endZ, surfaceBwd)
				}

				k.Execute(segLen3D, mat, fsr, i, surfaceFwd, surfaceBwd)
			}

			switch {
			case endFull > startFull:
				// Full range: tracks inside the cell for the whole 2D
				// segment share one constant length.
				segLen3D := segLen2D / sinTheta
				if segLen3D > TinyMove {
					for i := max(startFull, startTrack); i < min(endFull, endTrack); i++ {
						surfaceFwd := seg2D.SurfaceFwd
						surfaceBwd := seg2D.SurfaceBwd
						if cmfd != nil {
							startZ := firstStartZ + float64(i)*ref.zSpacing
							endZ := firstEndZ + float64(i)*ref.zSpacing
							surfaceFwd = cmfd.SurfaceOTF(cell, endZ, surfaceFwd)
							surfaceBwd = cmfd.SurfaceOTF(cell, startZ, surfaceBwd)
						}
						k.Execute(segLen3D, mat, fsr, i, surfaceFwd, surfaceBwd)
					}
				}

			case startFull > endFull:
				// Combined range: tracks crossing both cell boundaries in one
				// step. Only possible when the reference track's z rise over
				// this 2D segment exceeds the cell height, which is exactly
				// when the full range is empty.
				if zMax-zMin > upperZ-lowerZ {
					return fmt.Errorf("inconsistent stack ranges in region %d cell %d: "+
						"cell height %g exceeds track rise %g",
						seg2D.RegionID, zInd, zMax-zMin, upperZ-lowerZ)
				}

				segLen3D := (zMax - zMin) / absCos
				if segLen3D > TinyMove {
					for i := max(endFull, startTrack); i < min(startFull, endTrack); i++ {
						var enterZ, exitZ float64
						if sign > 0 {
							enterZ = zMin
							exitZ = zMax
						} else {
							enterZ = zMax
							exitZ = zMin
						}

						surfaceFwd := SurfaceNone
						surfaceBwd := SurfaceNone

						// A crossing within TinyMove of a 2D-segment corner
						// inherits the 2D surface before refinement.
						trackEndZ := firstEndZ + float64(i)*ref.zSpacing
						if (trackEndZ-exitZ)/cosTheta <= TinyMove {
							surfaceFwd = seg2D.SurfaceFwd
						}
						trackStartZ := firstStartZ + float64(i)*ref.zSpacing
						if (enterZ-trackStartZ)/cosTheta <= TinyMove {
							surfaceBwd = seg2D.SurfaceBwd
						}

						surfaceFwd = refine(cell, exitZ, surfaceFwd)
						surfaceBwd = refine(cell, enterZ, surfaceBwd)

						k.Execute(segLen3D, mat, fsr, i, surfaceFwd, surfaceBwd)
					}
				}
			}

			// Partial-upper range: tracks whose 2D-segment start lies inside
			// the cell, leaving through zMax. Length shrinks linearly with
			// stack index.
			minUpper := max(startFull, endFull)
			firstSegLen3D = (zMax - lowerZ) / absCos
			for i := max(minUpper, startTrack); i < endTrack; i++ {
				segLen3D := firstSegLen3D - float64(i)*trackSpacing3D
				if segLen3D <= TinyMove {
					continue
				}

				startZ := lowerZ + float64(i)*ref.zSpacing
				endZ := upperZ + float64(i)*ref.zSpacing
				distToCorner := (endZ - zMax) / absCos

				surfaceFwd := SurfaceNone
				surfaceBwd := SurfaceNone
				if sign > 0 {
					if distToCorner <= TinyMove {
						surfaceFwd = seg2D.SurfaceFwd
					}
					surfaceFwd = refine(cell, zMax, surfaceFwd)
					surfaceBwd = seg2D.SurfaceBwd
					surfaceBwd = refine(cell, startZ, surfaceBwd)
				} else {
					surfaceFwd = seg2D.SurfaceFwd
					surfaceFwd = refine(cell, startZ, surfaceFwd)
					if distToCorner <= TinyMove {
						surfaceBwd = seg2D.SurfaceBwd
					}
					surfaceBwd = refine(cell, zMax, surfaceBwd)
				}

				k.Execute(segLen3D, mat, fsr, i, surfaceFwd, surfaceBwd)
			}
		}

		// Advance the reference track to where it enters the next 2D segment.
		firstStartZ = firstEndZ
	}
	return nil
}
