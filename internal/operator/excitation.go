package operator

import (
	"math"

	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/grid"
)

// Source is a single excitation site: a spatial region driven by the shared
// waveform, offset by a per-source delay in timesteps.
type Source struct {
	Delay  uint64
	Weight float64
	Dir    int // field component driven, 0..2
	Box    geometry.BoxSpec

	cells grid.Box // resolved during Bake
}

func (s *Source) Cells() grid.Box { return s.cells }

// Excitation describes the Gaussian-pulse drive shared by all sources and the
// sampling bookkeeping derived from its bandwidth.
type Excitation struct {
	F0      float64 // center frequency
	FC      float64 // 20dB cutoff frequency (half bandwidth)
	Sources []Source

	dt     float64
	t0     float64
	sigma  float64
	peakTS uint64
	nyq    uint64
}

func NewExcitation(f0, fc float64, sources []Source) *Excitation {
	return &Excitation{F0: f0, FC: fc, Sources: sources}
}

// setup derives the waveform timing once the operator timestep is known.
func (e *Excitation) setup(dt float64) {
	e.dt = dt
	if e.FC <= 0 {
		e.t0, e.sigma, e.peakTS = 0, 0, 0
		e.nyq = 1
		return
	}
	e.sigma = 3.0 / (2.0 * math.Pi * e.FC)
	e.t0 = 3.0 * e.sigma
	e.peakTS = uint64(math.Round(e.t0 / dt))
	nyq := math.Floor(1.0 / (2.0 * dt * (e.F0 + e.FC)))
	if nyq < 1 {
		nyq = 1
	}
	e.nyq = uint64(nyq)
}

// Signal returns the shared waveform amplitude at timestep ts, before any
// per-source delay or weighting.
func (e *Excitation) Signal(ts uint64) float64 {
	if e.sigma == 0 {
		return 0
	}
	t := float64(ts) * e.dt
	arg := (t - e.t0) / e.sigma
	return math.Cos(2.0*math.Pi*e.F0*(t-e.t0)) * math.Exp(-0.5*arg*arg)
}

// NyquistNum is the minimum sampling interval in timesteps that resolves the
// excitation bandwidth without aliasing.
func (e *Excitation) NyquistNum() uint64 { return e.nyq }

// PeakTimestep is the timestep of maximum waveform amplitude, before
// per-source delays.
func (e *Excitation) PeakTimestep() uint64 { return e.peakTS }
