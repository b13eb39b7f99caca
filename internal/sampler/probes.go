package sampler

import (
	"math"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/grid"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// FieldKind selects the sampled field quantity.
type FieldKind int

const (
	EField FieldKind = iota
	HField
)

// VoltageProbe integrates the voltage drop along the longest axis of its box.
type VoltageProbe struct {
	probeBase
	dir int
}

func NewVoltageProbe(name string, box grid.Box, weight float64, freqs []float64, rd *engine.Reader, store *storage.Store, runID string) *VoltageProbe {
	return &VoltageProbe{
		probeBase: newProbeBase(name, box, weight, freqs, rd, store, runID),
		dir:       box.LongestDir(),
	}
}

func (p *VoltageProbe) SampleAt(ts uint64) {
	if !p.due(ts) {
		return
	}
	// line integral through the box center, along the probe direction
	var at [3]int
	for d := 0; d < 3; d++ {
		at[d] = (p.box.Start[d] + p.box.Stop[d]) / 2
	}
	sum := 0.0
	for l := p.box.Start[p.dir]; l <= p.box.Stop[p.dir]; l++ {
		at[p.dir] = l
		sum += p.rd.Voltage(p.dir, at[0], at[1], at[2])
	}
	p.record(ts, -p.weight*sum)
}

// CurrentProbe integrates the magnetic circulation around the plane normal to
// the shortest axis of its box.
type CurrentProbe struct {
	probeBase
	normal int
}

func NewCurrentProbe(name string, box grid.Box, weight float64, freqs []float64, rd *engine.Reader, store *storage.Store, runID string) *CurrentProbe {
	normal := 0
	for d := 1; d < 3; d++ {
		if box.Extent(d) < box.Extent(normal) {
			normal = d
		}
	}
	return &CurrentProbe{
		probeBase: newProbeBase(name, box, weight, freqs, rd, store, runID),
		normal:    normal,
	}
}

func (p *CurrentProbe) SampleAt(ts uint64) {
	if !p.due(ts) {
		return
	}
	t1, t2 := (p.normal+1)%3, (p.normal+2)%3
	var at [3]int
	at[p.normal] = (p.box.Start[p.normal] + p.box.Stop[p.normal]) / 2

	sum := 0.0
	// two edges parallel to t1
	for a := p.box.Start[t1]; a <= p.box.Stop[t1]; a++ {
		at[t1] = a
		at[t2] = p.box.Start[t2]
		sum += p.rd.Current(t1, at[0], at[1], at[2])
		at[t2] = p.box.Stop[t2]
		sum -= p.rd.Current(t1, at[0], at[1], at[2])
	}
	// two edges parallel to t2
	for b := p.box.Start[t2]; b <= p.box.Stop[t2]; b++ {
		at[t2] = b
		at[t1] = p.box.Stop[t1]
		sum += p.rd.Current(t2, at[0], at[1], at[2])
		at[t1] = p.box.Start[t1]
		sum -= p.rd.Current(t2, at[0], at[1], at[2])
	}
	p.record(ts, p.weight*sum)
}

// FieldProbe records the mean field magnitude over its box.
type FieldProbe struct {
	probeBase
	kind FieldKind
}

func NewFieldProbe(name string, kind FieldKind, box grid.Box, weight float64, freqs []float64, rd *engine.Reader, store *storage.Store, runID string) *FieldProbe {
	return &FieldProbe{
		probeBase: newProbeBase(name, box, weight, freqs, rd, store, runID),
		kind:      kind,
	}
}

func (p *FieldProbe) SampleAt(ts uint64) {
	if !p.due(ts) {
		return
	}
	sum, cells := 0.0, 0
	for i := p.box.Start[0]; i <= p.box.Stop[0]; i++ {
		for j := p.box.Start[1]; j <= p.box.Stop[1]; j++ {
			for k := p.box.Start[2]; k <= p.box.Stop[2]; k++ {
				mag2 := 0.0
				for d := 0; d < 3; d++ {
					var f float64
					if p.kind == EField {
						f = p.rd.Voltage(d, i, j, k)
					} else {
						f = p.rd.Current(d, i, j, k)
					}
					mag2 += f * f
				}
				sum += math.Sqrt(mag2)
				cells++
			}
		}
	}
	if cells > 0 {
		sum /= float64(cells)
	}
	p.record(ts, p.weight*sum)
}
