package engine

import "github.com/fdtdlab/fdtdlab/internal/operator"

// basicEngine is the reference backend: a plain triple loop over the grid.
type basicEngine struct {
	op    *operator.Operator
	st    *State
	hooks []operator.EngineHook
	ts    uint64
}

func (e *basicEngine) Name() string { return "basic" }
func (e *basicEngine) Timestep() uint64 { return e.ts }

func (e *basicEngine) Advance(n uint64) uint64 {
	for step := uint64(0); step < n; step++ {
		e.updateVoltages()
		for _, h := range e.hooks {
			h.ApplyVoltages(&e.st.Volt)
		}
		applyExcitation(e.op, e.st, e.ts)

		e.updateCurrents()
		for _, h := range e.hooks {
			h.ApplyCurrents(&e.st.Curr)
		}
		e.ts++
	}
	return n
}

func (e *basicEngine) updateVoltages() {
	nx, ny, nz := e.op.Dims()
	sh := e.op.Shifts()
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		volt, vv, vi := e.st.Volt[d], e.op.VV[d], e.op.VI[d]
		cP, cPP := e.st.Curr[dP], e.st.Curr[dPP]
		var lo [3]int
		lo[dP], lo[dPP] = 1, 1
		for i := lo[0]; i < nx; i++ {
			for j := lo[1]; j < ny; j++ {
				for k := lo[2]; k < nz; k++ {
					p := e.op.Idx(i, j, k)
					curl := cPP[p] - cPP[p-sh[dP]] - cP[p] + cP[p-sh[dPP]]
					volt[p] = vv[p]*volt[p] + vi[p]*curl
				}
			}
		}
	}
}

func (e *basicEngine) updateCurrents() {
	nx, ny, nz := e.op.Dims()
	sh := e.op.Shifts()
	dims := [3]int{nx, ny, nz}
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		curr, ii, iv := e.st.Curr[d], e.op.II[d], e.op.IV[d]
		vP, vPP := e.st.Volt[dP], e.st.Volt[dPP]
		hi := dims
		hi[dP]--
		hi[dPP]--
		for i := 0; i < hi[0]; i++ {
			for j := 0; j < hi[1]; j++ {
				for k := 0; k < hi[2]; k++ {
					p := e.op.Idx(i, j, k)
					curl := vPP[p+sh[dP]] - vPP[p] - vP[p+sh[dPP]] + vP[p]
					curr[p] = ii[p]*curr[p] - iv[p]*curl
				}
			}
		}
	}
}
