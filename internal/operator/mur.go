package operator

import "math"

// MurABC is a first-order absorbing boundary bound to a single MUR face.
// The phase velocity used by the one-way wave equation resolves with
// precedence: explicit SetPhaseVelocity > material velocity at the face.
type MurABC struct {
	op   *Operator
	face int
	vPh  float64

	coeff float64
	hook  *murHook
}

func NewMurABC(op *Operator, face int) *MurABC {
	return &MurABC{op: op, face: face}
}

func (m *MurABC) Name() string { return "MurABC-" + FaceNames[m.face] }

func (m *MurABC) Face() int { return m.face }

func (m *MurABC) SetPhaseVelocity(v float64) { m.vPh = v }

func (m *MurABC) PhaseVelocity() float64 { return m.vPh }

func (m *MurABC) Build() error {
	dir := m.face / 2
	top := m.face%2 == 1
	nx, ny, nz := m.op.Dims()
	dims := [3]int{nx, ny, nz}

	ib := 0
	if top {
		ib = dims[dir] - 1
	}
	delta := m.op.Grid().Spacing(dir, min(ib, dims[dir]-2))

	v := m.vPh
	if v <= 0 {
		// material phase velocity at the center of the face
		ci, cj, ck := nx/2, ny/2, nz/2
		switch dir {
		case 0:
			ci = ib
		case 1:
			cj = ib
		case 2:
			ck = ib
		}
		v = C0 / math.Sqrt(m.op.EpsRAt(ci, cj, ck))
	}
	m.coeff = (v*m.op.dt - delta) / (v*m.op.dt + delta)

	t1, t2 := (dir+1)%3, (dir+2)%3
	planeSize := dims[t1] * dims[t2]
	h := &murHook{op: m.op, dir: dir, ib: ib, coeff: m.coeff, n1: dims[t1], n2: dims[t2]}
	if top {
		h.ii = ib - 1
	} else {
		h.ii = 1
	}
	for _, t := range [2]int{t1, t2} {
		h.tans = append(h.tans, t)
		h.prevInner = append(h.prevInner, make([]float64, planeSize))
		h.prevBound = append(h.prevBound, make([]float64, planeSize))
	}
	m.hook = h
	return nil
}

func (m *MurABC) Hook() EngineHook { return m.hook }

type murHook struct {
	op    *Operator
	dir   int
	ib    int // boundary plane index along dir
	ii    int // first inner plane index along dir
	coeff float64

	tans      []int
	n1, n2    int
	prevInner [][]float64
	prevBound [][]float64
}

func (h *murHook) Name() string { return "mur-abc" }

func (h *murHook) ApplyVoltages(volt *[3][]float64) {
	t1 := (h.dir + 1) % 3
	t2 := (h.dir + 2) % 3
	var idx3 [3]int
	for ti, t := range h.tans {
		prevIn, prevBd := h.prevInner[ti], h.prevBound[ti]
		plane := 0
		for a := 0; a < h.n1; a++ {
			for b := 0; b < h.n2; b++ {
				idx3[h.dir] = h.ib
				idx3[t1] = a
				idx3[t2] = b
				pb := h.op.Idx(idx3[0], idx3[1], idx3[2])
				idx3[h.dir] = h.ii
				pi := h.op.Idx(idx3[0], idx3[1], idx3[2])

				next := prevIn[plane] + h.coeff*(volt[t][pi]-prevBd[plane])
				volt[t][pb] = next
				prevIn[plane] = volt[t][pi]
				prevBd[plane] = next
				plane++
			}
		}
	}
}

func (h *murHook) ApplyCurrents(curr *[3][]float64) {}

var _ Extension = (*MurABC)(nil)
