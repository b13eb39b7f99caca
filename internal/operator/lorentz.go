package operator

import (
	"fmt"

	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/grid"
)

// LorentzMaterial adds the auxiliary polarization-current update required by
// dispersive material regions. Exactly one instance covers all such regions;
// it is attached only when the geometry contains at least one.
type LorentzMaterial struct {
	op      *Operator
	regions []lorentzRegion
	hook    *lorentzHook
}

type lorentzRegion struct {
	name       string
	spec       geometry.BoxSpec
	plasmaFreq float64
	relaxTime  float64

	box  grid.Box
	a, b float64 // ADE recursion coefficients
}

func NewLorentzMaterial(op *Operator, geo *geometry.Description) *LorentzMaterial {
	l := &LorentzMaterial{op: op}
	for _, m := range geo.Materials {
		if m.Kind != geometry.MaterialDispersive {
			continue
		}
		l.regions = append(l.regions, lorentzRegion{
			name:       m.Name,
			spec:       m.Box,
			plasmaFreq: m.PlasmaFreq,
			relaxTime:  m.RelaxTime,
		})
	}
	return l
}

func (l *LorentzMaterial) Name() string { return "LorentzMaterial" }

func (l *LorentzMaterial) NumRegions() int { return len(l.regions) }

func (l *LorentzMaterial) Build() error {
	dt := l.op.dt
	for i := range l.regions {
		r := &l.regions[i]
		box, err := l.op.Grid().SnapBox(r.spec.Start, r.spec.Stop)
		if err != nil {
			return fmt.Errorf("dispersive region %q: %w", r.name, err)
		}
		r.box = box
		if r.relaxTime <= 0 || r.plasmaFreq <= 0 {
			return fmt.Errorf("dispersive region %q: plasma_freq and relax_time must be positive", r.name)
		}
		g := dt / (2 * r.relaxTime)
		r.a = (1 - g) / (1 + g)
		r.b = (r.plasmaFreq * r.plasmaFreq * Eps0 * dt) / (1 + g)
	}

	nx, ny, nz := l.op.Dims()
	n := nx * ny * nz
	h := &lorentzHook{op: l.op, regions: l.regions, dt: dt}
	for d := 0; d < 3; d++ {
		h.curJ[d] = make([]float64, n)
	}
	l.hook = h
	return nil
}

func (l *LorentzMaterial) Hook() EngineHook { return l.hook }

type lorentzHook struct {
	op      *Operator
	regions []lorentzRegion
	dt      float64
	curJ    [3][]float64 // auxiliary polarization currents
}

func (h *lorentzHook) Name() string { return "lorentz-material" }

func (h *lorentzHook) ApplyVoltages(volt *[3][]float64) {
	for _, r := range h.regions {
		for i := r.box.Start[0]; i <= r.box.Stop[0]; i++ {
			for j := r.box.Start[1]; j <= r.box.Stop[1]; j++ {
				for k := r.box.Start[2]; k <= r.box.Stop[2]; k++ {
					p := h.op.Idx(i, j, k)
					eps := Eps0 * h.op.epsR[p]
					for d := 0; d < 3; d++ {
						h.curJ[d][p] = r.a*h.curJ[d][p] + r.b*volt[d][p]
						volt[d][p] -= h.dt / eps * h.curJ[d][p]
					}
				}
			}
		}
	}
}

func (h *lorentzHook) ApplyCurrents(curr *[3][]float64) {}

var _ Extension = (*LorentzMaterial)(nil)
