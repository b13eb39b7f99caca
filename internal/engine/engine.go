// Package engine owns the mutable grid state and advances it in
// caller-specified batches. All backends implement the same contract and are
// numerically equivalent; they differ only in throughput.
package engine

import (
	"errors"
	"fmt"

	"github.com/fdtdlab/fdtdlab/internal/operator"
)

// Engine advances the field state. Advance progresses exactly n timesteps and
// returns the number taken; the timestep counter is strictly increasing and
// never rolls back.
type Engine interface {
	Name() string
	Advance(n uint64) uint64
	Timestep() uint64
}

// State holds the mutable field arrays. It is written exclusively inside
// Advance; samplers read it through a Reader between batches.
type State struct {
	Volt [3][]float64
	Curr [3][]float64
}

func newState(op *operator.Operator) *State {
	nx, ny, nz := op.Dims()
	n := nx * ny * nz
	st := &State{}
	for d := 0; d < 3; d++ {
		st.Volt[d] = make([]float64, n)
		st.Curr[d] = make([]float64, n)
	}
	return st
}

// New creates the engine variant the operator was configured for, together
// with the read-only interface samplers use. The operator must be baked.
func New(op *operator.Operator) (Engine, *Reader, error) {
	if !op.Baked() {
		return nil, nil, errors.New("engine: operator coefficients not baked")
	}
	st := newState(op)
	var hooks []operator.EngineHook
	for _, ext := range op.Extensions() {
		if h := ext.Hook(); h != nil {
			hooks = append(hooks, h)
		}
	}

	var eng Engine
	switch op.Type() {
	case operator.TypeBasic:
		eng = &basicEngine{op: op, st: st, hooks: hooks}
	case operator.TypeVector, operator.TypeCylinder:
		eng = &vectorEngine{op: op, st: st, hooks: hooks}
	case operator.TypeVectorCompressed:
		eng = newCompressedEngine(op, st, hooks)
	case operator.TypeMultithread, operator.TypeCylinderMultiGrid:
		eng = newMultithreadEngine(op, st, hooks)
	default:
		return nil, nil, fmt.Errorf("engine: unknown operator type %s", op.Type())
	}
	return eng, &Reader{op: op, st: st, eng: eng}, nil
}

// applyExcitation drives all sources at timestep ts. Shared by every backend.
func applyExcitation(op *operator.Operator, st *State, ts uint64) {
	exc := op.Excitation()
	if exc == nil {
		return
	}
	for s := range exc.Sources {
		src := &exc.Sources[s]
		if ts < src.Delay {
			continue
		}
		amp := src.Weight * exc.Signal(ts-src.Delay)
		if amp == 0 {
			continue
		}
		box := src.Cells()
		for i := box.Start[0]; i <= box.Stop[0]; i++ {
			for j := box.Start[1]; j <= box.Stop[1]; j++ {
				for k := box.Start[2]; k <= box.Stop[2]; k++ {
					st.Volt[src.Dir][op.Idx(i, j, k)] += amp
				}
			}
		}
	}
}
