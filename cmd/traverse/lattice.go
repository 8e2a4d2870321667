package main

import (
	"fmt"
	"math"

	"github.com/moclab/traverse/internal/traverse"
)

// latticeParams sizes the built-in demo model: a single row of square pins,
// each extruded over its own axial mesh, swept by two azimuthal angles and a
// symmetric pair of polar angles.
type latticeParams struct {
	Pins          int
	TracksPerAzim int
	AxialCells    int
	StackSize     int
	PinWidth      float64
	Height        float64
}

func defaultLatticeParams() latticeParams {
	return latticeParams{
		Pins:          8,
		TracksPerAzim: 16,
		AxialCells:    20,
		StackSize:     10,
		PinWidth:      1.26,
		Height:        20.0,
	}
}

func (p latticeParams) validate() error {
	if p.Pins < 1 || p.TracksPerAzim < 1 || p.AxialCells < 1 || p.StackSize < 1 {
		return fmt.Errorf("lattice dimensions must be positive: %+v", p)
	}
	if p.PinWidth <= 0 || p.Height <= 0 {
		return fmt.Errorf("lattice extents must be positive: %+v", p)
	}
	return nil
}

// latticeGeometry resolves the extruded pin regions of the demo lattice.
// No coarse-mesh coupling is configured.
type latticeGeometry struct {
	regions map[int]*traverse.ExtrudedRegion
}

func (g *latticeGeometry) ExtrudedRegion(id int) *traverse.ExtrudedRegion { return g.regions[id] }

func (g *latticeGeometry) CoarseMesh() traverse.CoarseMesh { return nil }

var (
	latticeFuel  = &traverse.Material{ID: 1, Name: "uo2"}
	latticeWater = &traverse.Material{ID: 2, Name: "water"}
)

// latticeMaterial alternates fuel and moderator pins.
func latticeMaterial(pin int) *traverse.Material {
	if pin%2 == 0 {
		return latticeFuel
	}
	return latticeWater
}

// flatRegionID names the flat region of one axial cell of one pin.
func flatRegionID(pin, cell int) int { return pin*100 + cell }

// buildLatticeGeometry builds one extruded region per pin. Every region gets
// its own copy of the axial mesh so the per-region mesh path is exercised.
func buildLatticeGeometry(p latticeParams) *latticeGeometry {
	g := &latticeGeometry{regions: make(map[int]*traverse.ExtrudedRegion, p.Pins)}
	for pin := 0; pin < p.Pins; pin++ {
		mesh := make([]float64, p.AxialCells+1)
		mats := make([]*traverse.Material, p.AxialCells)
		ids := make([]int, p.AxialCells)
		for c := 0; c <= p.AxialCells; c++ {
			mesh[c] = p.Height * float64(c) / float64(p.AxialCells)
		}
		for c := 0; c < p.AxialCells; c++ {
			mats[c] = latticeMaterial(pin)
			ids[c] = flatRegionID(pin, c)
		}
		g.regions[pin] = &traverse.ExtrudedRegion{ID: pin, Mesh: mesh, Materials: mats, RegionIDs: ids}
	}
	return g
}

// buildLatticeTracks lays down the 2D track set: two azimuthal angles, each
// with TracksPerAzim parallel tracks crossing every pin once. The in-plane
// segment length per pin is PinWidth / cos(phi).
func buildLatticeTracks(p latticeParams) [][]traverse.Track2D {
	phis := []float64{0, math.Pi / 4}
	tracks := make([][]traverse.Track2D, len(phis))
	for a, phi := range phis {
		segLen := p.PinWidth / math.Cos(phi)
		length := segLen * float64(p.Pins)
		tracks[a] = make([]traverse.Track2D, p.TracksPerAzim)
		for i := 0; i < p.TracksPerAzim; i++ {
			y := p.PinWidth * (float64(i) + 0.5) / float64(p.TracksPerAzim)
			t := traverse.Track2D{
				AzimIndex: a,
				XYIndex:   i,
				Start:     traverse.Point3{X: 0, Y: y},
				End: traverse.Point3{
					X: length * math.Cos(phi),
					Y: y + length*math.Sin(phi),
				},
				Phi: phi,
			}
			for pin := 0; pin < p.Pins; pin++ {
				// 2D segments name the extruded region; the per-cell flat
				// region ids come out of the axial walk.
				t.Segments = append(t.Segments, traverse.Segment{
					Length:     segLen,
					Material:   latticeMaterial(pin),
					RegionID:   pin,
					SurfaceFwd: traverse.SurfaceNone,
					SurfaceBwd: traverse.SurfaceNone,
				})
			}
			tracks[a][i] = t
		}
	}
	return tracks
}

// assembleLatticeModel attaches the 3D stacks to a 2D track set and returns
// a validated model. The stacks cover the axial span with starts centered in
// equal slices, one climbing and one descending polar angle per stack.
func assembleLatticeModel(p latticeParams, tracks2D [][]traverse.Track2D) (*traverse.Model, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	model, err := traverse.NewModel(buildLatticeGeometry(p), tracks2D)
	if err != nil {
		return nil, err
	}

	thetas := []float64{math.Pi / 4, 3 * math.Pi / 4}
	numPolar := len(thetas)
	spacing := p.Height / float64(p.StackSize)

	tracks3D := make([][][][]traverse.Track3D, len(tracks2D))
	perStack := make([][][]int, len(tracks2D))
	zSpacing := make([][]float64, len(tracks2D))
	for a := range tracks2D {
		tracks3D[a] = make([][][]traverse.Track3D, len(tracks2D[a]))
		perStack[a] = make([][]int, len(tracks2D[a]))
		zSpacing[a] = make([]float64, numPolar)
		for pol := 0; pol < numPolar; pol++ {
			zSpacing[a][pol] = spacing
		}
		for i := range tracks2D[a] {
			flat := &tracks2D[a][i]
			length2D := flat.Length()
			tracks3D[a][i] = make([][]traverse.Track3D, numPolar)
			perStack[a][i] = make([]int, numPolar)
			for pol, theta := range thetas {
				perStack[a][i][pol] = p.StackSize
				stack := make([]traverse.Track3D, p.StackSize)
				for z := 0; z < p.StackSize; z++ {
					z0 := spacing * (float64(z) + 0.5)
					stack[z] = traverse.Track3D{
						AzimIndex:  a,
						XYIndex:    i,
						PolarIndex: pol,
						StackIndex: z,
						Start:      traverse.Point3{X: flat.Start.X, Y: flat.Start.Y, Z: z0},
						End: traverse.Point3{
							X: flat.End.X,
							Y: flat.End.Y,
							Z: z0 + length2D/math.Tan(theta),
						},
						Theta: theta,
					}
				}
				tracks3D[a][i][pol] = stack
			}
		}
	}

	if err := model.Attach3D(tracks3D, perStack, numPolar, zSpacing); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// buildLatticeModel generates the full demo model from scratch.
func buildLatticeModel(p latticeParams) (*traverse.Model, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return assembleLatticeModel(p, buildLatticeTracks(p))
}
