package sampler

import (
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/grid"
	"github.com/fdtdlab/fdtdlab/internal/operator"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

func testLines(n int, step float64) []float64 {
	l := make([]float64, n)
	for i := range l {
		l[i] = float64(i) * step
	}
	return l
}

// newTestReader bakes a small driven vacuum model and advances it far enough
// that the fields around the source are nonzero.
func newTestReader(t *testing.T, steps uint64) (engine.Engine, *engine.Reader) {
	t.Helper()
	op, err := operator.New(operator.Options{Type: operator.TypeBasic})
	if err != nil {
		t.Fatal(err)
	}
	geo := &geometry.Description{
		Lines: geometry.LineSet{
			X: testLines(7, 1e-3),
			Y: testLines(7, 1e-3),
			Z: testLines(7, 1e-3),
		},
	}
	if err := op.SetGeometry(geo); err != nil {
		t.Fatal(err)
	}
	op.SetExcitation(operator.NewExcitation(5e9, 5e9, []operator.Source{{
		Box: geometry.BoxSpec{
			Start: [3]float64{3e-3, 3e-3, 3e-3},
			Stop:  [3]float64{3e-3, 3e-3, 3e-3},
		},
	}}))
	if err := op.Bake(0, ""); err != nil {
		t.Fatal(err)
	}
	eng, rd, err := engine.New(op)
	if err != nil {
		t.Fatal(err)
	}
	eng.Advance(steps)
	return eng, rd
}

func TestProbeWeightDefault(t *testing.T) {
	_, rd := newTestReader(t, 1)
	p := NewVoltageProbe("v", grid.Box{Stop: [3]int{1, 1, 1}}, 0, nil, rd, nil, "")
	if p.weight != 1 {
		t.Errorf("weight = %g, want default 1", p.weight)
	}
}

func TestVoltageProbeSamplesOnInterval(t *testing.T) {
	_, rd := newTestReader(t, 40)
	// z-aligned box through the driven cell: the integral picks up the
	// excited component directly
	box := grid.Box{Start: [3]int{3, 3, 1}, Stop: [3]int{3, 3, 5}}
	p := NewVoltageProbe("v", box, 1, nil, rd, nil, "")
	p.SetInterval(10)

	p.SampleAt(13) // not due
	if len(p.pendingV) != 0 {
		t.Fatal("sampled off the interval boundary")
	}
	p.SampleAt(40)
	if len(p.pendingV) != 1 {
		t.Fatal("missed a due timestep")
	}
	if p.pendingV[0] == 0 {
		t.Error("voltage integral over the driven region is zero")
	}
}

func TestCurrentProbeNormalAxis(t *testing.T) {
	_, rd := newTestReader(t, 40)
	// flat in z: circulation plane normal must be z
	box := grid.Box{Start: [3]int{1, 1, 3}, Stop: [3]int{5, 5, 3}}
	p := NewCurrentProbe("i", box, 1, nil, rd, nil, "")
	if p.normal != 2 {
		t.Errorf("normal = %d, want 2", p.normal)
	}
	p.SetInterval(10)
	p.SampleAt(40)
	if len(p.pendingV) != 1 {
		t.Fatal("missed a due timestep")
	}
}

func TestFieldProbeMeanMagnitude(t *testing.T) {
	_, rd := newTestReader(t, 40)
	box := grid.Box{Start: [3]int{2, 2, 2}, Stop: [3]int{4, 4, 4}}
	p := NewFieldProbe("e", EField, box, 1, nil, rd, nil, "")
	p.SetInterval(10)
	p.SampleAt(40)
	if len(p.pendingV) != 1 || p.pendingV[0] <= 0 {
		t.Fatalf("mean field magnitude = %v, want one positive sample", p.pendingV)
	}
}

func TestFourierAccumulation(t *testing.T) {
	_, rd := newTestReader(t, 10)
	p := NewVoltageProbe("v", grid.Box{Start: [3]int{3, 3, 3}, Stop: [3]int{3, 3, 3}}, 1, []float64{1e9}, rd, nil, "")

	// a single sample of value v contributes magnitude |v| at every frequency
	p.record(10, 2.5)
	if got := cmplx.Abs(p.FourierSum()[0]); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("|fd| = %g, want 2.5 after one sample", got)
	}
}

func TestProbeFlushAndClose(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(dir)
	_, rd := newTestReader(t, 40)

	p := NewVoltageProbe("vport", grid.Box{Start: [3]int{2, 2, 2}, Stop: [3]int{4, 4, 4}}, 1, []float64{1e9}, rd, store, "run1")
	p.SetInterval(10)
	p.SampleAt(10)
	p.SampleAt(20)

	if err := p.FlushPending(); err != nil {
		t.Fatal(err)
	}
	times, values, err := store.LoadSeries("run1", "vport")
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || len(values) != 2 {
		t.Fatalf("loaded %d/%d rows, want 2/2", len(times), len(values))
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "run1", "vport_fd.csv")); err != nil {
		t.Errorf("frequency-domain file missing: %v", err)
	}
}

func TestFieldDumpBufferAndFlush(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(dir)
	_, rd := newTestReader(t, 20)

	box := grid.Box{Start: [3]int{1, 1, 1}, Stop: [3]int{5, 5, 5}}
	d := NewFieldDump("et", EField, box, [3]int{0, 2, 1}, "", rd, store, "run1")
	if d.sub != [3]int{1, 2, 1} {
		t.Errorf("subsampling = %v, want clamp to [1 2 1]", d.sub)
	}
	if d.format != storage.FormatCSV {
		t.Errorf("format = %q, want csv default", d.format)
	}

	d.SetInterval(10)
	d.SampleAt(10)
	d.SampleAt(15) // not due
	d.SampleAt(20)
	if d.Buffered() != 2 {
		t.Fatalf("Buffered() = %d, want 2", d.Buffered())
	}

	if err := d.FlushPending(); err != nil {
		t.Fatal(err)
	}
	if d.Buffered() != 0 {
		t.Error("buffer not cleared by flush")
	}
	for _, ts := range []string{"0000000010", "0000000020"} {
		if _, err := os.Stat(filepath.Join(dir, "run1", "et_"+ts+".csv")); err != nil {
			t.Errorf("snapshot file for ts %s missing: %v", ts, err)
		}
	}
}
