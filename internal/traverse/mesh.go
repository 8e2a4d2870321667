package traverse

import "fmt"

// FindMeshIndex locates, by binary search, the axial cell containing val in a
// strictly increasing boundary array: the returned index i satisfies
// values[i] <= val <= values[i+1]. A value landing exactly on an interior
// boundary belongs to the upper cell for sign > 0 and the lower cell for
// sign < 0, so a track arriving at a boundary always continues into the cell
// it is about to enter. Values outside [values[0], values[len-1]] return
// ErrOutsideMesh and no index.
func FindMeshIndex(values []float64, val float64, sign int) (int, error) {
	imin := 0
	imax := len(values) - 1

	if val < values[imin] || val > values[imax] {
		return 0, fmt.Errorf("%w: %g not in [%g, %g]",
			ErrOutsideMesh, val, values[imin], values[imax])
	}

	for imax-imin > 1 {
		imid := (imin + imax) / 2
		switch {
		case val > values[imid]:
			imin = imid
		case val < values[imid]:
			imax = imid
		default:
			if sign > 0 {
				return imid, nil
			}
			return imid - 1, nil
		}
	}
	return imin, nil
}
