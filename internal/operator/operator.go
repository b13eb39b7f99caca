// Package operator implements the field-update model: the coefficient-bearing
// representation of the meshed geometry, its boundary conditions and the
// extensions baked into it before an engine is created.
package operator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/grid"
)

const (
	C0   = 299792458.0
	Eps0 = 8.8541878128e-12
	Mue0 = 4.0e-7 * math.Pi
)

// Type selects the operator/engine variant. Variants are numerically
// equivalent and differ only in how the engine walks the grid.
type Type int

const (
	TypeBasic Type = iota
	TypeVector
	TypeVectorCompressed
	TypeMultithread
	TypeCylinder
	TypeCylinderMultiGrid
)

func (t Type) String() string {
	switch t {
	case TypeBasic:
		return "basic"
	case TypeVector:
		return "vector"
	case TypeVectorCompressed:
		return "vector-compressed"
	case TypeMultithread:
		return "multithread"
	case TypeCylinder:
		return "cylinder"
	case TypeCylinderMultiGrid:
		return "cylinder-multigrid"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

type Options struct {
	Type           Type
	Threads        int       // 0 selects runtime.NumCPU at engine creation
	MultiGridRadii []float64 // cylinder-multigrid only, ascending
}

var ErrBaked = errors.New("operator: coefficients already baked")

// Operator owns the discretized update coefficients, the per-face boundary
// codes, the ordered extension list and the excitation. It is rebuilt from
// scratch for every configuration; there is no incremental mutation.
type Operator struct {
	opts Options
	grd  *grid.Grid
	geo  *geometry.Description

	bounds [6]BoundaryType
	exts   []Extension
	exc    *Excitation

	dt         float64
	dtOverride float64

	// update coefficients and rasterized material maps, per cell
	VV, VI, II, IV [3][]float64
	epsR, mueR     []float64
	kappa          []float64

	nx, ny, nz int
	baked      bool
}

func New(opts Options) (*Operator, error) {
	if len(opts.MultiGridRadii) > 0 {
		if opts.Type != TypeCylinderMultiGrid {
			return nil, errors.New("operator: multigrid radii require the cylinder-multigrid variant")
		}
		if !sort.Float64sAreSorted(opts.MultiGridRadii) {
			return nil, errors.New("operator: multigrid radii must be ascending")
		}
	} else if opts.Type == TypeCylinderMultiGrid {
		return nil, errors.New("operator: cylinder-multigrid variant requires at least one radius")
	}
	return &Operator{opts: opts}, nil
}

func (o *Operator) Type() Type { return o.opts.Type }
func (o *Operator) Threads() int { return o.opts.Threads }
func (o *Operator) MeshType() grid.MeshType {
	if o.opts.Type == TypeCylinder || o.opts.Type == TypeCylinderMultiGrid {
		return grid.CylindricalMesh
	}
	return grid.CartesianMesh
}

// SetGeometry meshes the description and rasterizes its material regions.
// A description the grid cannot represent is rejected; the caller must treat
// that as fatal.
func (o *Operator) SetGeometry(geo *geometry.Description) error {
	g, err := grid.New(o.MeshType(), geo.Lines.Axes())
	if err != nil {
		return fmt.Errorf("operator: geometry rejected: %w", err)
	}
	o.grd = g
	o.geo = geo
	o.nx, o.ny, o.nz = g.NumLines(0), g.NumLines(1), g.NumLines(2)

	n := o.nx * o.ny * o.nz
	o.epsR = make([]float64, n)
	o.mueR = make([]float64, n)
	o.kappa = make([]float64, n)
	for i := range o.epsR {
		o.epsR[i] = 1
		o.mueR[i] = 1
	}
	for _, m := range geo.Materials {
		box, err := g.SnapBox(m.Box.Start, m.Box.Stop)
		if err != nil {
			return fmt.Errorf("operator: material %q rejected: %w", m.Name, err)
		}
		epsR, mueR := m.EpsR, m.MueR
		if epsR <= 0 {
			epsR = 1
		}
		if mueR <= 0 {
			mueR = 1
		}
		for i := box.Start[0]; i <= box.Stop[0]; i++ {
			for j := box.Start[1]; j <= box.Stop[1]; j++ {
				for k := box.Start[2]; k <= box.Stop[2]; k++ {
					p := o.Idx(i, j, k)
					o.epsR[p] = epsR
					o.mueR[p] = mueR
					o.kappa[p] = m.Kappa
				}
			}
		}
	}
	return nil
}

func (o *Operator) SetBoundaryConditions(bc [6]BoundaryType) { o.bounds = bc }
func (o *Operator) BoundaryConditions() [6]BoundaryType { return o.bounds }

// AddExtension appends ext to the pipeline. Extensions attached after baking
// would never be reflected in the coefficients, so that is rejected outright.
func (o *Operator) AddExtension(ext Extension) error {
	if o.baked {
		return ErrBaked
	}
	o.exts = append(o.exts, ext)
	return nil
}

func (o *Operator) Extensions() []Extension { return o.exts }

// SetTimestep overrides the stability-derived timestep.
func (o *Operator) SetTimestep(dt float64) { o.dtOverride = dt }

func (o *Operator) Timestep() float64 { return o.dt }

func (o *Operator) SetExcitation(exc *Excitation) { o.exc = exc }
func (o *Operator) Excitation() *Excitation { return o.exc }

func (o *Operator) Grid() *grid.Grid { return o.grd }
func (o *Operator) Dims() (int, int, int) { return o.nx, o.ny, o.nz }
func (o *Operator) Idx(i, j, k int) int { return (i*o.ny+j)*o.nz + k }
func (o *Operator) Shifts() [3]int { return [3]int{o.ny * o.nz, o.nz, 1} }
func (o *Operator) NumCells() uint64 { return o.grd.NumCells() }
func (o *Operator) Baked() bool { return o.baked }
func (o *Operator) EpsRAt(i, j, k int) float64 { return o.epsR[o.Idx(i, j, k)] }

// Bake is the single irreversible step converting geometry plus extensions
// into per-cell update coefficients. Extensions are built in attach order.
// Debug flags emit auxiliary dumps and never alter the coefficients.
func (o *Operator) Bake(flags DebugFlags, debugDir string) error {
	if o.baked {
		return ErrBaked
	}
	if o.grd == nil {
		return errors.New("operator: no geometry set")
	}
	if o.dtOverride > 0 {
		o.dt = o.dtOverride
	} else {
		// Courant limit on the smallest cell
		o.dt = o.grd.MinSpacing() / (C0 * math.Sqrt(3))
	}

	n := o.nx * o.ny * o.nz
	for d := 0; d < 3; d++ {
		o.VV[d] = make([]float64, n)
		o.VI[d] = make([]float64, n)
		o.II[d] = make([]float64, n)
		o.IV[d] = make([]float64, n)
	}
	for i := 0; i < o.nx; i++ {
		for j := 0; j < o.ny; j++ {
			for k := 0; k < o.nz; k++ {
				p := o.Idx(i, j, k)
				eps := Eps0 * o.epsR[p]
				mue := Mue0 * o.mueR[p]
				loss := o.kappa[p] * o.dt / (2 * eps)
				idx3 := [3]int{i, j, k}
				for d := 0; d < 3; d++ {
					delta := o.grd.Spacing(d, idx3[d])
					o.VV[d][p] = (1 - loss) / (1 + loss)
					o.VI[d][p] = (o.dt / eps / delta) / (1 + loss)
					o.II[d][p] = 1
					o.IV[d][p] = o.dt / mue / delta
				}
			}
		}
	}

	if o.exc != nil {
		o.exc.setup(o.dt)
		for s := range o.exc.Sources {
			src := &o.exc.Sources[s]
			box, err := o.grd.SnapBox(src.Box.Start, src.Box.Stop)
			if err != nil {
				return fmt.Errorf("operator: excitation source %d rejected: %w", s, err)
			}
			src.cells = box
			if src.Dir < 0 || src.Dir > 2 {
				src.Dir = 2
			}
			if src.Weight == 0 {
				src.Weight = 1
			}
		}
	}

	for _, ext := range o.exts {
		if err := ext.Build(); err != nil {
			return fmt.Errorf("operator: extension %s: %w", ext.Name(), err)
		}
	}
	o.baked = true

	if flags != 0 {
		if err := o.writeDebugDumps(flags, debugDir); err != nil {
			return fmt.Errorf("operator: debug dumps: %w", err)
		}
	}
	return nil
}
