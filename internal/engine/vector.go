package engine

import "github.com/fdtdlab/fdtdlab/internal/operator"

// vectorEngine walks the grid line by line so the innermost loop runs over
// contiguous memory. Numerics are identical to the basic backend.
type vectorEngine struct {
	op    *operator.Operator
	st    *State
	hooks []operator.EngineHook
	ts    uint64
}

func (e *vectorEngine) Name() string { return "vector" }
func (e *vectorEngine) Timestep() uint64 { return e.ts }

func (e *vectorEngine) Advance(n uint64) uint64 {
	nx, _, _ := e.op.Dims()
	for step := uint64(0); step < n; step++ {
		vectorUpdateVoltages(e.op, e.st, 0, nx)
		for _, h := range e.hooks {
			h.ApplyVoltages(&e.st.Volt)
		}
		applyExcitation(e.op, e.st, e.ts)

		vectorUpdateCurrents(e.op, e.st, 0, nx)
		for _, h := range e.hooks {
			h.ApplyCurrents(&e.st.Curr)
		}
		e.ts++
	}
	return n
}

// vectorUpdateVoltages updates the voltage components for x-lines in
// [iLo, iHi). Exposed to the multithreaded backend for slab partitioning.
// iLo/iHi are raw x indices; transverse start offsets are applied inside.
func vectorUpdateVoltages(op *operator.Operator, st *State, iLo, iHi int) {
	nx, ny, nz := op.Dims()
	if iHi > nx {
		iHi = nx
	}
	sh := op.Shifts()
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		volt, vv, vi := st.Volt[d], op.VV[d], op.VI[d]
		cP, cPP := st.Curr[dP], st.Curr[dPP]
		var lo [3]int
		lo[dP], lo[dPP] = 1, 1
		i0 := iLo
		if i0 < lo[0] {
			i0 = lo[0]
		}
		for i := i0; i < iHi; i++ {
			for j := lo[1]; j < ny; j++ {
				base := op.Idx(i, j, 0)
				for k := lo[2]; k < nz; k++ {
					p := base + k
					curl := cPP[p] - cPP[p-sh[dP]] - cP[p] + cP[p-sh[dPP]]
					volt[p] = vv[p]*volt[p] + vi[p]*curl
				}
			}
		}
	}
}

// vectorUpdateCurrents updates the current components for x-lines in
// [iLo, iHi).
func vectorUpdateCurrents(op *operator.Operator, st *State, iLo, iHi int) {
	nx, ny, nz := op.Dims()
	sh := op.Shifts()
	dims := [3]int{nx, ny, nz}
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		curr, ii, iv := st.Curr[d], op.II[d], op.IV[d]
		vP, vPP := st.Volt[dP], st.Volt[dPP]
		hi := dims
		hi[dP]--
		hi[dPP]--
		i1 := iHi
		if i1 > hi[0] {
			i1 = hi[0]
		}
		for i := iLo; i < i1; i++ {
			for j := 0; j < hi[1]; j++ {
				base := op.Idx(i, j, 0)
				for k := 0; k < hi[2]; k++ {
					p := base + k
					curl := vPP[p+sh[dP]] - vPP[p] - vP[p+sh[dPP]] + vP[p]
					curr[p] = ii[p]*curr[p] - iv[p]*curl
				}
			}
		}
	}
}
