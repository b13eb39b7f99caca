package sampler

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/grid"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// ModeMatchProbe projects the sampled field onto a user-defined spatial mode
// function, one expression per component in the variables x, y and z (grid
// coordinates). The mode weights are evaluated once at Init; a sample is the
// normalized inner product of field and mode over the box.
type ModeMatchProbe struct {
	probeBase
	kind  FieldKind
	exprs [3]string

	modeW [3][]float64
	norm  float64
}

func NewModeMatchProbe(name string, kind FieldKind, box grid.Box, weight float64, freqs []float64, exprs [3]string, rd *engine.Reader, store *storage.Store, runID string) *ModeMatchProbe {
	return &ModeMatchProbe{
		probeBase: newProbeBase(name, box, weight, freqs, rd, store, runID),
		kind:      kind,
		exprs:     exprs,
	}
}

func (p *ModeMatchProbe) Init() error {
	g := p.rd.Operator().Grid()
	cells := p.box.NumCells()
	if cells == 0 {
		return errors.New("mode match: empty box")
	}

	parsed := [3]hclsyntax.Expression{}
	for d := 0; d < 3; d++ {
		if p.exprs[d] == "" {
			continue
		}
		expr, diags := hclsyntax.ParseExpression([]byte(p.exprs[d]), fmt.Sprintf("mode_function_%d", d), hcl.InitialPos)
		if diags.HasErrors() {
			return fmt.Errorf("mode function %d: %s", d, diags.Error())
		}
		parsed[d] = expr
	}

	for d := 0; d < 3; d++ {
		p.modeW[d] = make([]float64, cells)
	}
	p.norm = 0
	c := 0
	for i := p.box.Start[0]; i <= p.box.Stop[0]; i++ {
		for j := p.box.Start[1]; j <= p.box.Stop[1]; j++ {
			for k := p.box.Start[2]; k <= p.box.Stop[2]; k++ {
				vars := map[string]cty.Value{
					"x": cty.NumberFloatVal(g.Lines[0][i]),
					"y": cty.NumberFloatVal(g.Lines[1][j]),
					"z": cty.NumberFloatVal(g.Lines[2][k]),
				}
				for d := 0; d < 3; d++ {
					if parsed[d] == nil {
						continue
					}
					val, diags := parsed[d].Value(&hcl.EvalContext{Variables: vars})
					if diags.HasErrors() {
						return fmt.Errorf("mode function %d: %s", d, diags.Error())
					}
					if val.Type() != cty.Number {
						return fmt.Errorf("mode function %d: yielded %s, want number", d, val.Type().FriendlyName())
					}
					w, _ := val.AsBigFloat().Float64()
					p.modeW[d][c] = w
					p.norm += w * w
				}
				c++
			}
		}
	}
	if p.norm == 0 {
		return errors.New("mode match: mode function is zero over the probe box")
	}
	return nil
}

func (p *ModeMatchProbe) SampleAt(ts uint64) {
	if !p.due(ts) {
		return
	}
	sum := 0.0
	c := 0
	for i := p.box.Start[0]; i <= p.box.Stop[0]; i++ {
		for j := p.box.Start[1]; j <= p.box.Stop[1]; j++ {
			for k := p.box.Start[2]; k <= p.box.Stop[2]; k++ {
				for d := 0; d < 3; d++ {
					w := p.modeW[d][c]
					if w == 0 {
						continue
					}
					var f float64
					if p.kind == EField {
						f = p.rd.Voltage(d, i, j, k)
					} else {
						f = p.rd.Current(d, i, j, k)
					}
					sum += f * w
				}
				c++
			}
		}
	}
	p.record(ts, p.weight*sum/p.norm)
}
