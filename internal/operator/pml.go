package operator

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// GradingFunc maps the normalized depth into a PML layer (0 at the inner
// edge, 1 at the mesh face) to a conductivity scale factor.
type GradingFunc func(d float64) float64

// DefaultGrading is the polynomial profile used when no expression is given.
func DefaultGrading(d float64) float64 { return math.Pow(d, 4) }

// ParseGrading compiles a user-supplied grading expression in the variable d.
// The expression is parsed once; evaluation failures during baking surface as
// Build errors.
func ParseGrading(expr string) (GradingFunc, error) {
	parsed, diags := hclsyntax.ParseExpression([]byte(expr), "pml_grading", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %q: %s", expr, diags.Error())
	}
	// probe once so a bad variable reference fails at parse time, not mid-bake
	if _, err := evalGrading(parsed, 0.5); err != nil {
		return nil, err
	}
	return func(d float64) float64 {
		v, err := evalGrading(parsed, d)
		if err != nil {
			return DefaultGrading(d)
		}
		return v
	}, nil
}

func evalGrading(expr hclsyntax.Expression, d float64) (float64, error) {
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"d": cty.NumberFloatVal(d)},
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return 0, errors.New(diags.Error())
	}
	var out float64
	if err := ctyToFloat(val, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func ctyToFloat(v cty.Value, out *float64) error {
	if v.Type() != cty.Number {
		return fmt.Errorf("grading expression yielded %s, want number", v.Type().FriendlyName())
	}
	f, _ := v.AsBigFloat().Float64()
	*out = f
	return nil
}

// UPML truncates one mesh face with a graded-conductivity absorbing shell.
type UPML struct {
	op      *Operator
	face    int
	depth   int
	grading GradingFunc

	hook *pmlHook
}

// CreateUPML inspects the full boundary array and attaches one UPML extension
// per face resolved to PML, sharing the grading profile. It is a no-op when
// there are none.
func CreateUPML(op *Operator, bounds [6]BoundaryType, depths [6]int, grading GradingFunc) ([]*UPML, error) {
	if grading == nil {
		grading = DefaultGrading
	}
	var layers []*UPML
	for f := 0; f < 6; f++ {
		if bounds[f] != PML {
			continue
		}
		d := depths[f]
		if d <= 0 {
			d = DefaultPMLDepth
		}
		u := &UPML{op: op, face: f, depth: d, grading: grading}
		if err := op.AddExtension(u); err != nil {
			return nil, err
		}
		layers = append(layers, u)
	}
	return layers, nil
}

func (u *UPML) Name() string { return "UPML-" + FaceNames[u.face] }

func (u *UPML) Face() int { return u.face }

func (u *UPML) Depth() int { return u.depth }

func (u *UPML) Build() error {
	dir, top := u.face/2, u.face%2 == 1
	nx, ny, nz := u.op.Dims()
	dims := [3]int{nx, ny, nz}
	if u.depth >= dims[dir] {
		return fmt.Errorf("PML depth %d exceeds %d lines on %s", u.depth, dims[dir], FaceNames[u.face])
	}

	// conductivity chosen so the profile integrates to a fixed reflection
	// coefficient over the layer
	delta := u.op.Grid().Spacing(dir, 0)
	sigmaMax := -(math.Log(1e-4) * C0 * Eps0) / (2 * float64(u.depth) * delta)

	h := &pmlHook{op: u.op, dir: dir}
	for layer := 0; layer < u.depth; layer++ {
		d := float64(u.depth-layer) / float64(u.depth)
		sigma := sigmaMax * u.grading(d)
		if sigma < 0 {
			sigma = 0
		}
		plane := layer
		if top {
			plane = dims[dir] - 1 - layer
		}
		h.planes = append(h.planes, plane)
		h.factors = append(h.factors, math.Exp(-sigma*u.op.dt/Eps0))
	}
	u.hook = h
	return nil
}

func (u *UPML) Hook() EngineHook { return u.hook }

// pmlHook damps every field component on its face's shell planes.
type pmlHook struct {
	op      *Operator
	dir     int
	planes  []int
	factors []float64
}

func (h *pmlHook) Name() string { return "upml" }

func (h *pmlHook) ApplyVoltages(volt *[3][]float64) { h.apply(volt) }

func (h *pmlHook) ApplyCurrents(curr *[3][]float64) { h.apply(curr) }

func (h *pmlHook) apply(field *[3][]float64) {
	nx, ny, nz := h.op.Dims()
	var lo, hi [3]int
	hi = [3]int{nx - 1, ny - 1, nz - 1}
	for l, plane := range h.planes {
		f := h.factors[l]
		if f == 1 {
			continue
		}
		lo[h.dir], hi[h.dir] = plane, plane
		for d := 0; d < 3; d++ {
			arr := field[d]
			for i := lo[0]; i <= hi[0]; i++ {
				for j := lo[1]; j <= hi[1]; j++ {
					for k := lo[2]; k <= hi[2]; k++ {
						arr[h.op.Idx(i, j, k)] *= f
					}
				}
			}
		}
	}
}

var _ Extension = (*UPML)(nil)
