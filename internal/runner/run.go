package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// State is the run loop's lifecycle. Converged, TimeLimitReached and Aborted
// are all valid successful exits, not failures.
type State int

const (
	Initializing State = iota
	Running
	Converged
	TimeLimitReached
	Aborted
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case TimeLimitReached:
		return "time-limit-reached"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Report is a progress or final observation of the run. It is observability
// only and never feeds back into termination.
type Report struct {
	State        State
	Timestep     uint64
	Budget       uint64
	Percent      float64
	MCellsPerSec float64
	DecayDB      float64
	Elapsed      time.Duration
}

// progressEvery is the wall-clock cadence of progress reports, decoupled from
// the sampling cadence.
const progressEvery = 4 * time.Second

// Run drives the engine in sampler-derived batches until convergence, budget
// exhaustion or cancellation. The loop is single-threaded and cooperative:
// cancellation and ctx are polled once per iteration, between batches.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	if s.eng == nil {
		return nil, errors.New("runner: session not set up for simulation")
	}
	s.state = Running
	endCrit := s.cfg.FDTD.EndCriteria
	mcells := float64(s.op.NumCells()) / 1e6

	start := time.Now()
	prevReport := start
	var prevTS uint64

	step := s.arr.SafeAdvance(0, s.budget)
	for {
		now := s.eng.Timestep()
		if now >= s.budget {
			s.state = TimeLimitReached
			break
		}
		if ratio, ok := s.energy.Ratio(); ok && ratio <= endCrit {
			s.state = Converged
			break
		}
		if s.cancel.Cancelled() || ctx.Err() != nil {
			s.state = Aborted
			break
		}

		s.eng.Advance(step)
		ts := s.eng.Timestep()
		s.arr.SampleAt(ts)
		step = s.arr.SafeAdvance(ts, s.budget)

		if since := time.Since(prevReport); since > progressEvery {
			speed := mcells * float64(ts-prevTS) / since.Seconds()
			rep := Report{
				State:        Running,
				Timestep:     ts,
				Budget:       s.budget,
				Percent:      100 * float64(ts) / float64(s.budget),
				MCellsPerSec: speed,
				DecayDB:      s.energy.DecayDB(),
				Elapsed:      time.Since(start),
			}
			s.log.Infow("progress",
				"timestep", rep.Timestep,
				"percent", fmt.Sprintf("%.2f", rep.Percent),
				"speed_mcells_per_s", fmt.Sprintf("%.1f", rep.MCellsPerSec),
				"energy_decay_db", fmt.Sprintf("%.2f", rep.DecayDB),
			)
			if s.Progress != nil {
				s.Progress(rep)
			}
			prevReport = time.Now()
			prevTS = ts
		}

		if err := s.arr.FlushNext(); err != nil {
			s.log.Warnw("flush failed", "error", err)
		}
	}

	if err := s.arr.CloseAll(); err != nil {
		s.log.Warnw("sampler close failed", "error", err)
	}

	elapsed := time.Since(start)
	final := &Report{
		State:    s.state,
		Timestep: s.eng.Timestep(),
		Budget:   s.budget,
		Percent:  100 * float64(s.eng.Timestep()) / float64(max(s.budget, 1)),
		DecayDB:  s.energy.DecayDB(),
		Elapsed:  elapsed,
	}
	if elapsed > 0 {
		final.MCellsPerSec = mcells * float64(s.eng.Timestep()) / elapsed.Seconds()
	}

	s.log.Infow("run finished",
		"state", s.state.String(),
		"timesteps", final.Timestep,
		"cells", s.op.NumCells(),
		"elapsed", elapsed.String(),
		"speed_mcells_per_s", fmt.Sprintf("%.1f", final.MCellsPerSec),
	)

	meta := storage.RunMetadata{
		ID:            s.runID,
		Timestamp:     time.Now(),
		Engine:        s.op.Type().String(),
		State:         s.state.String(),
		Timesteps:     final.Timestep,
		Cells:         s.op.NumCells(),
		ElapsedSec:    elapsed.Seconds(),
		MCellsPerSec:  final.MCellsPerSec,
		EnergyDecayDB: final.DecayDB,
	}
	if err := s.store.SaveMetadata(meta); err != nil {
		s.log.Warnw("failed to save run metadata", "error", err)
	}
	if s.Progress != nil {
		s.Progress(*final)
	}
	return final, nil
}
