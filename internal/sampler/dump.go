package sampler

import (
	"math"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/grid"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// FieldDump buffers time-domain snapshots of the field magnitude over its
// box, optionally subsampled per axis, and writes them out on FlushPending.
// Buffering decouples sampling from storage; writes happen only between
// engine batches.
type FieldDump struct {
	probeBase
	kind   FieldKind
	sub    [3]int
	format string

	buffer []storage.Snapshot
}

func NewFieldDump(name string, kind FieldKind, box grid.Box, sub [3]int, format string, rd *engine.Reader, store *storage.Store, runID string) *FieldDump {
	for d := 0; d < 3; d++ {
		if sub[d] < 1 {
			sub[d] = 1
		}
	}
	if format != storage.FormatJSON {
		format = storage.FormatCSV
	}
	return &FieldDump{
		probeBase: newProbeBase(name, box, 1, nil, rd, store, runID),
		kind:      kind,
		sub:       sub,
		format:    format,
	}
}

func (p *FieldDump) SampleAt(ts uint64) {
	if !p.due(ts) {
		return
	}
	var dims [3]int
	for d := 0; d < 3; d++ {
		dims[d] = (p.box.Extent(d) + p.sub[d] - 1) / p.sub[d]
	}
	values := make([]float64, 0, dims[0]*dims[1]*dims[2])
	for i := p.box.Start[0]; i <= p.box.Stop[0]; i += p.sub[0] {
		for j := p.box.Start[1]; j <= p.box.Stop[1]; j += p.sub[1] {
			for k := p.box.Start[2]; k <= p.box.Stop[2]; k += p.sub[2] {
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
				values = append(values, math.Sqrt(mag2))
			}
		}
	}
	p.buffer = append(p.buffer, storage.Snapshot{
		Timestep: ts,
		Time:     float64(ts) * p.rd.Operator().Timestep(),
		Dims:     dims,
		Values:   values,
	})
}

func (p *FieldDump) FlushPending() error {
	if p.store == nil {
		p.buffer = p.buffer[:0]
		return nil
	}
	for _, snap := range p.buffer {
		if err := p.store.WriteSnapshot(p.runID, p.name, p.format, snap); err != nil {
			return err
		}
	}
	p.buffer = p.buffer[:0]
	return nil
}

func (p *FieldDump) Close() error { return p.FlushPending() }

// Buffered reports how many snapshots await flushing, for tests.
func (p *FieldDump) Buffered() int { return len(p.buffer) }
