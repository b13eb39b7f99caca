// Package runner drives a single simulation session: it assembles the
// operator from the configuration, attaches boundary and material extensions
// in fixed order, bakes coefficients, creates the engine and sampler array,
// and runs the convergence-terminated time-stepping loop.
package runner

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fdtdlab/fdtdlab/internal/config"
	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/operator"
	"github.com/fdtdlab/fdtdlab/internal/sampler"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// Options are the process-level toggles that select behavior outside the
// configuration file.
type Options struct {
	EngineType   operator.Type
	Threads      int
	NoSimulation bool // preprocessing only: build and bake, skip the run loop
	DisableDumps bool
	Debug        operator.DebugFlags
}

// Session owns the model, engine and sampler array for one run. It is built
// fresh for every configuration and torn down at reset; there is no ambient
// process-wide state.
type Session struct {
	cfg  *config.Config
	opts Options
	log  *zap.SugaredLogger

	store *storage.Store
	runID string

	op     *operator.Operator
	eng    engine.Engine
	rd     *engine.Reader
	arr    *sampler.Array
	energy *sampler.EnergyRecorder

	cancel *CancelToken
	budget uint64
	state  State

	// Progress, when set, receives observability reports on a wall-clock
	// cadence. It never influences termination.
	Progress func(Report)
}

func NewSession(cfg *config.Config, opts Options, store *storage.Store, log *zap.SugaredLogger) *Session {
	return &Session{
		cfg:    cfg,
		opts:   opts,
		log:    log,
		store:  store,
		cancel: NewCancelToken(filepath.Join(store.BaseDir(), "ABORT")),
		state:  Initializing,
	}
}

// Cancel requests cooperative cancellation; it is observed between batches.
func (s *Session) Cancel() { s.cancel.Cancel() }

func (s *Session) State() State { return s.state }
func (s *Session) Budget() uint64 { return s.budget }
func (s *Session) Operator() *operator.Operator { return s.op }
func (s *Session) RunID() string { return s.runID }
func (s *Session) Energy() *sampler.EnergyRecorder { return s.energy }

// Setup builds and bakes the operator and, unless preprocessing-only was
// requested, creates the engine and sampler array.
func (s *Session) Setup() error {
	if err := s.store.Init(); err != nil {
		return err
	}
	s.runID = s.store.NewRunID("run")

	opType := s.opts.EngineType
	if s.cfg.FDTD.CylinderCoords {
		opType = operator.TypeCylinder
		if len(s.cfg.FDTD.MultiGrid) > 0 {
			opType = operator.TypeCylinderMultiGrid
		}
	}
	op, err := operator.New(operator.Options{
		Type:           opType,
		Threads:        s.opts.Threads,
		MultiGridRadii: s.cfg.FDTD.MultiGrid,
	})
	if err != nil {
		return err
	}
	if err := op.SetGeometry(s.cfg.Geometry); err != nil {
		return err
	}

	bounds, depths := s.resolveBoundaries()
	op.SetBoundaryConditions(bounds)
	if err := s.attachExtensions(op, bounds, depths); err != nil {
		return err
	}

	sources := make([]operator.Source, len(s.cfg.Excitation.Sources))
	for i, src := range s.cfg.Excitation.Sources {
		sources[i] = operator.Source{Delay: src.Delay, Weight: src.Weight, Dir: src.Dir, Box: src.Box}
	}
	exc := operator.NewExcitation(s.cfg.Excitation.F0, s.cfg.Excitation.FC, sources)
	op.SetExcitation(exc)

	if s.cfg.FDTD.Timestep > 0 {
		op.SetTimestep(s.cfg.FDTD.Timestep)
	}
	if err := op.Bake(s.opts.Debug, s.store.RunDir(s.runID)); err != nil {
		return err
	}
	s.op = op
	s.budget = s.cfg.EffectiveBudget(op.Timestep())

	s.log.Infow("operator baked",
		"engine", opType.String(),
		"cells", op.NumCells(),
		"timestep", op.Timestep(),
		"budget", s.budget,
		"nyquist", exc.NyquistNum(),
	)

	if s.opts.NoSimulation {
		return nil
	}

	eng, rd, err := engine.New(op)
	if err != nil {
		return err
	}
	s.eng, s.rd = eng, rd

	s.arr = sampler.BuildArray(s.cfg.Geometry, rd, s.store, s.runID, s.cfg.FDTD.OverSampling, !s.opts.DisableDumps, s.log)

	// Convergence tracking spans every source's transient onset: one forced
	// energy sample per source at its delay plus the waveform peak.
	s.energy = sampler.NewEnergyRecorder(rd, s.store, s.runID)
	s.arr.Add(s.energy)
	peak := exc.PeakTimestep()
	for _, src := range exc.Sources {
		s.energy.AddStep(src.Delay + peak)
	}
	return nil
}

// resolveBoundaries parses the six face tokens. An unrecognized token is not
// fatal: the face is logged and defaults to PEC.
func (s *Session) resolveBoundaries() ([6]operator.BoundaryType, [6]int) {
	var bounds [6]operator.BoundaryType
	var depths [6]int
	for f, token := range s.cfg.Boundaries.Faces() {
		if token == "" {
			bounds[f] = operator.PEC
			continue
		}
		bt, depth, err := operator.ParseBoundary(token)
		if err != nil {
			s.log.Warnw("unknown boundary condition, defaulting to PEC", "face", operator.FaceNames[f], "token", token)
			bounds[f] = operator.PEC
			continue
		}
		bounds[f] = bt
		depths[f] = depth
	}
	return bounds, depths
}

// attachExtensions applies the fixed-order extension pipeline: one absorbing
// boundary per MUR face, then the PML construction over the full boundary
// array, then the dispersive material extension if any region needs it.
func (s *Session) attachExtensions(op *operator.Operator, bounds [6]operator.BoundaryType, depths [6]int) error {
	for f := 0; f < 6; f++ {
		if bounds[f] != operator.MUR {
			continue
		}
		mur := operator.NewMurABC(op, f)
		if v := s.cfg.Boundaries.MurOverride(f); v > 0 {
			mur.SetPhaseVelocity(v)
		} else if v := s.cfg.Boundaries.MurPhaseVelocity; v > 0 {
			mur.SetPhaseVelocity(v)
		}
		if err := op.AddExtension(mur); err != nil {
			return fmt.Errorf("attach %s: %w", mur.Name(), err)
		}
	}

	var grading operator.GradingFunc
	if expr := s.cfg.Boundaries.PMLGrading; expr != "" {
		g, err := operator.ParseGrading(expr)
		if err != nil {
			s.log.Warnw("invalid PML grading expression, using default grading", "error", err)
		} else {
			grading = g
		}
	}
	if _, err := operator.CreateUPML(op, bounds, depths, grading); err != nil {
		return fmt.Errorf("attach UPML: %w", err)
	}

	if s.cfg.Geometry.HasDispersive() {
		if err := op.AddExtension(operator.NewLorentzMaterial(op, s.cfg.Geometry)); err != nil {
			return fmt.Errorf("attach LorentzMaterial: %w", err)
		}
	}
	return nil
}
