package sampler

import (
	"testing"

	"go.uber.org/zap"

	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

func TestBuildArraySkipsBrokenRecords(t *testing.T) {
	_, rd := newTestReader(t, 0)
	store := storage.New(t.TempDir())
	log := zap.NewNop().Sugar()

	inDomain := geometry.BoxSpec{
		Start: [3]float64{1e-3, 1e-3, 1e-3},
		Stop:  [3]float64{5e-3, 5e-3, 5e-3},
	}
	geo := &geometry.Description{
		Probes: []geometry.ProbeRecord{
			{Name: "good", Type: geometry.ProbeVoltage, Box: inDomain},
			{Name: "badtype", Type: "impedance", Box: inDomain},
			{Name: "outside", Type: geometry.ProbeVoltage, Box: geometry.BoxSpec{
				Start: [3]float64{1, 1, 1}, Stop: [3]float64{2, 2, 2},
			}},
			{Name: "badmode", Type: geometry.ProbeModeMatchE, Box: inDomain,
				ModeFunction: [3]string{"", "", "x +"}},
		},
		Dumps: []geometry.DumpRecord{
			{Name: "et", Type: geometry.DumpEField, Box: inDomain},
			{Name: "unknown", Type: "sfield", Box: inDomain},
		},
	}

	arr := BuildArray(geo, rd, store, "run1", 4, true, log)
	if got := len(arr.Samplers()); got != 2 {
		names := make([]string, 0, got)
		for _, s := range arr.Samplers() {
			names = append(names, s.Name())
		}
		t.Fatalf("built %d samplers %v, want 2 (good probe + et dump)", got, names)
	}
}

func TestBuildArrayDisablesDumps(t *testing.T) {
	_, rd := newTestReader(t, 0)
	store := storage.New(t.TempDir())
	log := zap.NewNop().Sugar()

	geo := &geometry.Description{
		Dumps: []geometry.DumpRecord{{
			Name: "et",
			Type: geometry.DumpEField,
			Box: geometry.BoxSpec{
				Start: [3]float64{1e-3, 1e-3, 1e-3},
				Stop:  [3]float64{5e-3, 5e-3, 5e-3},
			},
		}},
	}

	arr := BuildArray(geo, rd, store, "run1", 4, false, log)
	if len(arr.Samplers()) != 1 {
		t.Fatalf("built %d samplers, want 1", len(arr.Samplers()))
	}
	if arr.Samplers()[0].Enabled() {
		t.Error("dump enabled despite dumps being disabled")
	}
}

func TestBuildArrayIntervalFromNyquist(t *testing.T) {
	_, rd := newTestReader(t, 0)
	log := zap.NewNop().Sugar()

	geo := &geometry.Description{
		Probes: []geometry.ProbeRecord{{
			Name: "v",
			Type: geometry.ProbeVoltage,
			Box: geometry.BoxSpec{
				Start: [3]float64{3e-3, 3e-3, 1e-3},
				Stop:  [3]float64{3e-3, 3e-3, 5e-3},
			},
		}},
	}

	arr := BuildArray(geo, rd, nil, "run1", 4, true, log)
	nyq := rd.Operator().Excitation().NyquistNum()
	want := nyq / 4
	if want < 1 {
		want = 1
	}
	p := arr.Samplers()[0].(*VoltageProbe)
	if p.Interval() != want {
		t.Errorf("probe interval = %d, want %d (nyquist %d / oversampling 4)", p.Interval(), want, nyq)
	}
}
