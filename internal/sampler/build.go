package sampler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fdtdlab/fdtdlab/internal/engine"
	"github.com/fdtdlab/fdtdlab/internal/geometry"
	"github.com/fdtdlab/fdtdlab/internal/storage"
)

// BuildArray constructs the sampler array from the geometry's probe and dump
// records. A record with an unknown type or a box the grid cannot resolve is
// logged and skipped; it never fails the run.
func BuildArray(geo *geometry.Description, rd *engine.Reader, store *storage.Store, runID string, oversampling int, enableDumps bool, log *zap.SugaredLogger) *Array {
	nyquist := uint64(1)
	if exc := rd.Operator().Excitation(); exc != nil {
		nyquist = exc.NyquistNum()
	}
	arr := NewArray(nyquist, oversampling)

	for _, rec := range geo.Probes {
		s, err := newProbe(rec, rd, store, runID)
		if err != nil {
			log.Warnw("skipping probe", "name", rec.Name, "error", err)
			continue
		}
		if err := s.Init(); err != nil {
			log.Warnw("skipping probe", "name", rec.Name, "error", err)
			continue
		}
		arr.Add(s)
	}

	for _, rec := range geo.Dumps {
		box, err := rd.Operator().Grid().SnapBox(rec.Box.Start, rec.Box.Stop)
		if err != nil {
			log.Warnw("skipping field dump", "name", rec.Name, "error", err)
			continue
		}
		var kind FieldKind
		switch rec.Type {
		case geometry.DumpEField, "":
			kind = EField
		case geometry.DumpHField:
			kind = HField
		default:
			log.Warnw("skipping field dump", "name", rec.Name, "error", fmt.Errorf("unknown dump type %q", rec.Type))
			continue
		}
		dump := NewFieldDump(rec.Name, kind, box, rec.SubSampling, rec.Format, rd, store, runID)
		dump.SetEnabled(enableDumps)
		arr.Add(dump)
	}
	return arr
}

func newProbe(rec geometry.ProbeRecord, rd *engine.Reader, store *storage.Store, runID string) (Sampler, error) {
	box, err := rd.Operator().Grid().SnapBox(rec.Box.Start, rec.Box.Stop)
	if err != nil {
		return nil, err
	}
	switch rec.Type {
	case geometry.ProbeVoltage:
		return NewVoltageProbe(rec.Name, box, rec.Weight, rec.Frequencies, rd, store, runID), nil
	case geometry.ProbeCurrent:
		return NewCurrentProbe(rec.Name, box, rec.Weight, rec.Frequencies, rd, store, runID), nil
	case geometry.ProbeEField:
		return NewFieldProbe(rec.Name, EField, box, rec.Weight, rec.Frequencies, rd, store, runID), nil
	case geometry.ProbeHField:
		return NewFieldProbe(rec.Name, HField, box, rec.Weight, rec.Frequencies, rd, store, runID), nil
	case geometry.ProbeModeMatchE:
		return NewModeMatchProbe(rec.Name, EField, box, rec.Weight, rec.Frequencies, rec.ModeFunction, rd, store, runID), nil
	case geometry.ProbeModeMatchH:
		return NewModeMatchProbe(rec.Name, HField, box, rec.Weight, rec.Frequencies, rec.ModeFunction, rd, store, runID), nil
	}
	return nil, fmt.Errorf("unknown probe type %q", rec.Type)
}
