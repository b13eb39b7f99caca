package grid

import (
	"fmt"
	"math"
)

type MeshType int

const (
	CartesianMesh MeshType = iota
	CylindricalMesh
)

func (m MeshType) String() string {
	if m == CylindricalMesh {
		return "cylindrical"
	}
	return "cartesian"
}

// Grid is the rectilinear discretization the operator and all samplers share.
// Lines hold the monotonically increasing coordinate lines per axis.
type Grid struct {
	Mesh  MeshType
	Lines [3][]float64
}

func New(mesh MeshType, lines [3][]float64) (*Grid, error) {
	for d := 0; d < 3; d++ {
		if len(lines[d]) < 3 {
			return nil, fmt.Errorf("grid: axis %d has %d lines, need at least 3", d, len(lines[d]))
		}
		for i := 1; i < len(lines[d]); i++ {
			if lines[d][i] <= lines[d][i-1] {
				return nil, fmt.Errorf("grid: axis %d lines not strictly increasing at index %d", d, i)
			}
		}
	}
	return &Grid{Mesh: mesh, Lines: lines}, nil
}

func (g *Grid) NumLines(dir int) int { return len(g.Lines[dir]) }

func (g *Grid) NumCells() uint64 {
	n := uint64(1)
	for d := 0; d < 3; d++ {
		n *= uint64(len(g.Lines[d]))
	}
	return n
}

// Spacing returns the local cell width at line idx along dir. The last line
// reuses the spacing of its predecessor.
func (g *Grid) Spacing(dir, idx int) float64 {
	lines := g.Lines[dir]
	if idx >= len(lines)-1 {
		idx = len(lines) - 2
	}
	if idx < 0 {
		idx = 0
	}
	return lines[idx+1] - lines[idx]
}

func (g *Grid) MinSpacing() float64 {
	min := math.Inf(1)
	for d := 0; d < 3; d++ {
		for i := 0; i < len(g.Lines[d])-1; i++ {
			if s := g.Lines[d][i+1] - g.Lines[d][i]; s < min {
				min = s
			}
		}
	}
	return min
}

// Box is an inclusive index range on the grid.
type Box struct {
	Start, Stop [3]int
}

func (b Box) Extent(dir int) int { return b.Stop[dir] - b.Start[dir] + 1 }

// LongestDir returns the axis with the largest extent.
func (b Box) LongestDir() int {
	dir := 0
	for d := 1; d < 3; d++ {
		if b.Extent(d) > b.Extent(dir) {
			dir = d
		}
	}
	return dir
}

func (b Box) NumCells() int {
	return b.Extent(0) * b.Extent(1) * b.Extent(2)
}

// SnapBox resolves a coordinate-space bounding box to the nearest grid line
// indices. A coordinate outside the meshed domain cannot be resolved.
func (g *Grid) SnapBox(start, stop [3]float64) (Box, error) {
	var b Box
	for d := 0; d < 3; d++ {
		lo, hi := start[d], stop[d]
		if lo > hi {
			lo, hi = hi, lo
		}
		first, last := g.Lines[d][0], g.Lines[d][len(g.Lines[d])-1]
		if hi < first || lo > last {
			return Box{}, fmt.Errorf("grid: box [%g, %g] outside meshed domain [%g, %g] on axis %d", lo, hi, first, last, d)
		}
		b.Start[d] = g.snap(d, lo)
		b.Stop[d] = g.snap(d, hi)
	}
	return b, nil
}

func (g *Grid) snap(dir int, coord float64) int {
	lines := g.Lines[dir]
	best, bestDist := 0, math.Abs(lines[0]-coord)
	for i := 1; i < len(lines); i++ {
		if d := math.Abs(lines[i] - coord); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
