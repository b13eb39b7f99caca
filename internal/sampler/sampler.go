// Package sampler implements the heterogeneous output samplers (probes,
// mode-matching probes, field dumps) and the array that schedules them
// against the engine's batch advances.
package sampler

import (
	"math"
	"math/cmplx"
	"strconv"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/grid"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// Sampler reads engine/model state at its own cadence. SampleAt is invoked
// only between engine batches, never concurrently with Advance; the same
// holds for FlushPending.
type Sampler interface {
	Name() string
	Enabled() bool
	Init() error
	SetInterval(steps uint64)
	// NextSampleIn returns the number of timesteps after now until this
	// sampler must be invoked again.
	NextSampleIn(now uint64) uint64
	SampleAt(ts uint64)
	FlushPending() error
	Close() error
}

// probeBase carries what every sampler variant shares: identity, spatial
// region, cadence, weighting, optional frequency accumulation and the
// buffered time series pending storage flush.
type probeBase struct {
	name     string
	box      grid.Box
	interval uint64
	weight   float64
	enabled  bool
	rd       *engine.Reader

	freqs []float64
	fd    []complex128

	pendingT []float64
	pendingV []float64

	store *storage.Store
	runID string
}

func newProbeBase(name string, box grid.Box, weight float64, freqs []float64, rd *engine.Reader, store *storage.Store, runID string) probeBase {
	if weight == 0 {
		weight = 1
	}
	return probeBase{
		name:    name,
		box:     box,
		weight:  weight,
		enabled: true,
		rd:      rd,
		freqs:   freqs,
		fd:      make([]complex128, len(freqs)),
		store:   store,
		runID:   runID,
	}
}

func (b *probeBase) Name() string { return b.name }
func (b *probeBase) Enabled() bool { return b.enabled }
func (b *probeBase) SetEnabled(on bool) { b.enabled = on }
func (b *probeBase) Init() error { return nil }
func (b *probeBase) SetInterval(steps uint64) { b.interval = steps }
func (b *probeBase) Interval() uint64 { return b.interval }

func (b *probeBase) NextSampleIn(now uint64) uint64 {
	if b.interval == 0 {
		return math.MaxUint64
	}
	return b.interval - now%b.interval
}

func (b *probeBase) due(ts uint64) bool {
	return b.interval > 0 && ts%b.interval == 0
}

// record buffers one sample and folds it into the incremental Fourier sums.
func (b *probeBase) record(ts uint64, value float64) {
	t := float64(ts) * b.rd.Operator().Timestep()
	b.pendingT = append(b.pendingT, t)
	b.pendingV = append(b.pendingV, value)
	for i, f := range b.freqs {
		b.fd[i] += complex(value, 0) * cmplx.Exp(complex(0, -2*math.Pi*f*t))
	}
}

func (b *probeBase) FlushPending() error {
	if len(b.pendingT) == 0 || b.store == nil {
		b.pendingT = b.pendingT[:0]
		b.pendingV = b.pendingV[:0]
		return nil
	}
	rows := make([][]string, len(b.pendingT))
	for i := range b.pendingT {
		rows[i] = []string{
			strconv.FormatFloat(b.pendingT[i], 'g', -1, 64),
			strconv.FormatFloat(b.pendingV[i], 'g', -1, 64),
		}
	}
	if err := b.store.AppendSeries(b.runID, b.name, []string{"time", "value"}, rows); err != nil {
		return err
	}
	b.pendingT = b.pendingT[:0]
	b.pendingV = b.pendingV[:0]
	return nil
}

func (b *probeBase) Close() error {
	if err := b.FlushPending(); err != nil {
		return err
	}
	if len(b.freqs) == 0 || b.store == nil {
		return nil
	}
	rows := make([][]string, len(b.freqs))
	for i, f := range b.freqs {
		rows[i] = []string{
			strconv.FormatFloat(f, 'g', -1, 64),
			strconv.FormatFloat(cmplx.Abs(b.fd[i]), 'g', -1, 64),
			strconv.FormatFloat(cmplx.Phase(b.fd[i]), 'g', -1, 64),
		}
	}
	return b.store.AppendSeries(b.runID, b.name+"_fd", []string{"frequency", "magnitude", "phase"}, rows)
}

// FourierSum exposes the accumulated spectrum, mainly for tests.
func (b *probeBase) FourierSum() []complex128 { return b.fd }
