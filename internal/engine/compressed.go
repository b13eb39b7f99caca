package engine

import "github.com/fdtdlab/fdtdlab/internal/operator"

// compressedEngine deduplicates per-cell coefficient tuples into a shared
// table and walks the grid through a per-cell index. Grids dominated by a few
// homogeneous regions touch far less coefficient memory per step; the
// arithmetic is unchanged.
type compressedEngine struct {
	op    *operator.Operator
	st    *State
	hooks []operator.EngineHook
	ts    uint64

	table [][4]float64 // unique (vv, vi, ii, iv) per direction
	index [3][]uint32
}

func newCompressedEngine(op *operator.Operator, st *State, hooks []operator.EngineHook) *compressedEngine {
	e := &compressedEngine{op: op, st: st, hooks: hooks}
	seen := make(map[[4]float64]uint32)
	for d := 0; d < 3; d++ {
		e.index[d] = make([]uint32, len(op.VV[d]))
		for p := range op.VV[d] {
			key := [4]float64{op.VV[d][p], op.VI[d][p], op.II[d][p], op.IV[d][p]}
			id, ok := seen[key]
			if !ok {
				id = uint32(len(e.table))
				e.table = append(e.table, key)
				seen[key] = id
			}
			e.index[d][p] = id
		}
	}
	return e
}

func (e *compressedEngine) Name() string { return "vector-compressed" }
func (e *compressedEngine) Timestep() uint64 { return e.ts }

// UniqueCoefficients reports the size of the deduplicated table.
func (e *compressedEngine) UniqueCoefficients() int { return len(e.table) }

func (e *compressedEngine) Advance(n uint64) uint64 {
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

func (e *compressedEngine) updateVoltages() {
	nx, ny, nz := e.op.Dims()
	sh := e.op.Shifts()
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		volt, idx := e.st.Volt[d], e.index[d]
		cP, cPP := e.st.Curr[dP], e.st.Curr[dPP]
		var lo [3]int
		lo[dP], lo[dPP] = 1, 1
		for i := lo[0]; i < nx; i++ {
			for j := lo[1]; j < ny; j++ {
				base := e.op.Idx(i, j, 0)
				for k := lo[2]; k < nz; k++ {
					p := base + k
					c := &e.table[idx[p]]
					curl := cPP[p] - cPP[p-sh[dP]] - cP[p] + cP[p-sh[dPP]]
					volt[p] = c[0]*volt[p] + c[1]*curl
				}
			}
		}
	}
}

func (e *compressedEngine) updateCurrents() {
	nx, ny, nz := e.op.Dims()
	sh := e.op.Shifts()
	dims := [3]int{nx, ny, nz}
	for d := 0; d < 3; d++ {
		dP, dPP := (d+1)%3, (d+2)%3
		curr, idx := e.st.Curr[d], e.index[d]
		vP, vPP := e.st.Volt[dP], e.st.Volt[dPP]
		hi := dims
		hi[dP]--
		hi[dPP]--
		for i := 0; i < hi[0]; i++ {
			for j := 0; j < hi[1]; j++ {
				base := e.op.Idx(i, j, 0)
				for k := 0; k < hi[2]; k++ {
					p := base + k
					c := &e.table[idx[p]]
					curl := vPP[p+sh[dP]] - vPP[p] - vP[p+sh[dPP]] + vP[p]
					curr[p] = c[2]*curr[p] - c[3]*curl
				}
			}
		}
	}
}
