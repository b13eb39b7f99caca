package engine

import (
	"runtime"
	"sync"

	"github.com/fdtdlab/fdtdlab/internal/operator"
)

// multithreadEngine slab-partitions the grid along x and runs the voltage and
// current phases on a worker pool with a barrier in between. Each phase only
// writes its own field arrays, so slabs never race; hooks and excitation run
// single-threaded between phases.
type multithreadEngine struct {
	op      *operator.Operator
	st      *State
	hooks   []operator.EngineHook
	ts      uint64
	workers int
}

func newMultithreadEngine(op *operator.Operator, st *State, hooks []operator.EngineHook) *multithreadEngine {
	workers := op.Threads()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	nx, _, _ := op.Dims()
	if workers > nx {
		workers = nx
	}
	return &multithreadEngine{op: op, st: st, hooks: hooks, workers: workers}
}

func (e *multithreadEngine) Name() string { return "multithread" }
func (e *multithreadEngine) Timestep() uint64 { return e.ts }
func (e *multithreadEngine) Workers() int { return e.workers }

func (e *multithreadEngine) Advance(n uint64) uint64 {
	for step := uint64(0); step < n; step++ {
		e.parallelPhase(vectorUpdateVoltages)
		for _, h := range e.hooks {
			h.ApplyVoltages(&e.st.Volt)
		}
		applyExcitation(e.op, e.st, e.ts)

		e.parallelPhase(vectorUpdateCurrents)
		for _, h := range e.hooks {
			h.ApplyCurrents(&e.st.Curr)
		}
		e.ts++
	}
	return n
}

func (e *multithreadEngine) parallelPhase(update func(*operator.Operator, *State, int, int)) {
	nx, _, _ := e.op.Dims()
	chunk := (nx + e.workers - 1) / e.workers

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			lo := worker * chunk
			hi := lo + chunk
			if hi > nx {
				hi = nx
			}
			if lo >= hi {
				return
			}
			update(e.op, e.st, lo, hi)
		}(w)
	}
	wg.Wait()
}
