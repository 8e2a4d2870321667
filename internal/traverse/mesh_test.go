package traverse

import (
	"errors"
	"testing"
)

func TestFindMeshIndex(t *testing.T) {
	mesh := []float64{0, 1, 2.5, 2.6, 10}

	tests := []struct {
		name string
		val  float64
		sign int
		want int
	}{
		{"interior first cell", 0.5, 1, 0},
		{"interior first cell descending", 0.5, -1, 0},
		{"interior non-uniform cell", 2.55, 1, 2},
		{"interior last cell", 9.99, -1, 3},
		{"lower extreme", 0, 1, 0},
		{"lower extreme descending", 0, -1, 0},
		{"upper extreme", 10, 1, 3},
		{"upper extreme descending", 10, -1, 3},
		{"boundary tie ascending", 2.5, 1, 2},
		{"boundary tie descending", 2.5, -1, 1},
		{"boundary tie ascending uneven", 1, 1, 1},
		{"boundary tie descending uneven", 1, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindMeshIndex(mesh, tt.val, tt.sign)
			if err != nil {
				t.Fatalf("FindMeshIndex(%g, %d) error: %v", tt.val, tt.sign, err)
			}
			if got != tt.want {
				t.Errorf("FindMeshIndex(%g, %d) = %d, want %d", tt.val, tt.sign, got, tt.want)
			}
			if got < 0 || got >= len(mesh)-1 {
				t.Fatalf("index %d outside cell range", got)
			}
			// The containment invariant: values[i] <= val <= values[i+1].
			if mesh[got] > tt.val || tt.val > mesh[got+1] {
				t.Errorf("val %g not contained in cell %d [%g, %g]",
					tt.val, got, mesh[got], mesh[got+1])
			}
		})
	}
}

func TestFindMeshIndexOutsideRange(t *testing.T) {
	mesh := []float64{0, 1, 2}
	for _, val := range []float64{-0.001, 2.001, -100, 100} {
		_, err := FindMeshIndex(mesh, val, 1)
		if !errors.Is(err, ErrOutsideMesh) {
			t.Errorf("FindMeshIndex(%g) error = %v, want ErrOutsideMesh", val, err)
		}
	}
}
