package sampler

import (
	"math"
	"strconv"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// EnergyRecorder is the run loop's internal convergence sampler. On top of
// the regular cadence it samples at explicitly forced timesteps (one per
// excitation source, at delay plus waveform peak) so the running maximum
// spans every source's transient onset.
type EnergyRecorder struct {
	rd       *engine.Reader
	interval uint64
	forced   map[uint64]struct{}

	curr, max float64

	pendingT []float64
	pendingV []float64
	store    *storage.Store
	runID    string
}

func NewEnergyRecorder(rd *engine.Reader, store *storage.Store, runID string) *EnergyRecorder {
	return &EnergyRecorder{
		rd:     rd,
		forced: make(map[uint64]struct{}),
		store:  store,
		runID:  runID,
	}
}

func (e *EnergyRecorder) Name() string { return "energy" }
func (e *EnergyRecorder) Enabled() bool { return true }
func (e *EnergyRecorder) Init() error { return nil }
func (e *EnergyRecorder) SetInterval(steps uint64) { e.interval = steps }

// AddStep forces a sample at an absolute timestep.
func (e *EnergyRecorder) AddStep(ts uint64) { e.forced[ts] = struct{}{} }

func (e *EnergyRecorder) NextSampleIn(now uint64) uint64 {
	next := uint64(math.MaxUint64)
	if e.interval > 0 {
		next = e.interval - now%e.interval
	}
	for ts := range e.forced {
		if ts > now && ts-now < next {
			next = ts - now
		}
	}
	return next
}

func (e *EnergyRecorder) due(ts uint64) bool {
	if e.interval > 0 && ts%e.interval == 0 {
		return true
	}
	_, ok := e.forced[ts]
	return ok
}

func (e *EnergyRecorder) SampleAt(ts uint64) {
	if !e.due(ts) {
		return
	}
	e.curr = e.rd.EnergyEstimate()
	if e.curr > e.max {
		e.max = e.curr
	}
	e.pendingT = append(e.pendingT, float64(ts))
	e.pendingV = append(e.pendingV, e.curr)
}

// Ratio returns current/max energy. Until a strictly positive maximum has
// been recorded the ratio is undefined: ok is false and the convergence
// check must be skipped.
func (e *EnergyRecorder) Ratio() (float64, bool) {
	if e.max <= 0 {
		return 1, false
	}
	return e.curr / e.max, true
}

// DecayDB is the energy decay in decibels, |10*log10(current/max)|.
func (e *EnergyRecorder) DecayDB() float64 {
	r, ok := e.Ratio()
	if !ok || r <= 0 {
		return 0
	}
	return math.Abs(10 * math.Log10(r))
}

func (e *EnergyRecorder) FlushPending() error {
	if len(e.pendingT) == 0 || e.store == nil {
		e.pendingT = e.pendingT[:0]
		e.pendingV = e.pendingV[:0]
		return nil
	}
	rows := make([][]string, len(e.pendingT))
	for i := range e.pendingT {
		rows[i] = []string{
			strconv.FormatFloat(e.pendingT[i], 'f', 0, 64),
			strconv.FormatFloat(e.pendingV[i], 'g', -1, 64),
		}
	}
	if err := e.store.AppendSeries(e.runID, "energy", []string{"timestep", "energy"}, rows); err != nil {
		return err
	}
	e.pendingT = e.pendingT[:0]
	e.pendingV = e.pendingV[:0]
	return nil
}

func (e *EnergyRecorder) Close() error { return e.FlushPending() }

var _ Sampler = (*EnergyRecorder)(nil)
