package engine

import "github.com/fdtdlab/fdtdlab/internal/operator"

// Reader is the read-only view of the model+engine pair handed to samplers.
// It must only be used between Advance calls; the run loop guarantees that.
type Reader struct {
	op  *operator.Operator
	st  *State
	eng Engine
}

func (r *Reader) Operator() *operator.Operator { return r.op }

func (r *Reader) Timestep() uint64 { return r.eng.Timestep() }

func (r *Reader) Voltage(dir, i, j, k int) float64 {
	return r.st.Volt[dir][r.op.Idx(i, j, k)]
}

func (r *Reader) Current(dir, i, j, k int) float64 {
	return r.st.Curr[dir][r.op.Idx(i, j, k)]
}

// EnergyEstimate is a cheap field-energy proxy: the squared sum of both field
// arrays. The convergence criterion only needs its ratio to the running
// maximum, so physical scaling constants are irrelevant.
func (r *Reader) EnergyEstimate() float64 {
	e := 0.0
	for d := 0; d < 3; d++ {
		for _, v := range r.st.Volt[d] {
			e += v * v
		}
		for _, c := range r.st.Curr[d] {
			e += c * c
		}
	}
	return e
}
