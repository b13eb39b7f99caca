// Package geometry holds the declarative simulation description the driver
// consumes: grid lines, material regions, excitation sources and the
// probe/dump records the sampler array is built from. Full CAD-style geometry
// handling is an external concern; this is the minimal surface the solver
// driver needs.
package geometry

type Description struct {
	Lines     LineSet       `yaml:"lines"`
	Materials []Material    `yaml:"materials"`
	Probes    []ProbeRecord `yaml:"probes"`
	Dumps     []DumpRecord  `yaml:"dumps"`
}

type LineSet struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
	Z []float64 `yaml:"z"`
}

func (l LineSet) Axes() [3][]float64 { return [3][]float64{l.X, l.Y, l.Z} }

const (
	MaterialNormal     = "normal"
	MaterialDispersive = "dispersive"
)

type Material struct {
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"`
	EpsR  float64 `yaml:"eps_r"`
	MueR  float64 `yaml:"mue_r"`
	Kappa float64 `yaml:"kappa"`
	// Lorentz pole parameters, meaningful for dispersive regions only.
	PlasmaFreq float64 `yaml:"plasma_freq"`
	RelaxTime  float64 `yaml:"relax_time"`
	Box        BoxSpec `yaml:"box"`
}

type BoxSpec struct {
	Start [3]float64 `yaml:"start"`
	Stop  [3]float64 `yaml:"stop"`
}

func (d *Description) HasDispersive() bool {
	for _, m := range d.Materials {
		if m.Kind == MaterialDispersive {
			return true
		}
	}
	return false
}

// Probe type selectors, matching the sampler variants the driver knows.
const (
	ProbeVoltage    = "voltage"
	ProbeCurrent    = "current"
	ProbeEField     = "efield"
	ProbeHField     = "hfield"
	ProbeModeMatchE = "modematch_e"
	ProbeModeMatchH = "modematch_h"
)

type ProbeRecord struct {
	Name         string    `yaml:"name"`
	Type         string    `yaml:"type"`
	Box          BoxSpec   `yaml:"box"`
	Frequencies  []float64 `yaml:"frequencies"`
	Weight       float64   `yaml:"weight"`
	ModeFunction [3]string `yaml:"mode_function"`
}

const (
	DumpEField = "efield"
	DumpHField = "hfield"

	DumpFormatCSV  = "csv"
	DumpFormatJSON = "json"
)

type DumpRecord struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Box         BoxSpec `yaml:"box"`
	SubSampling [3]int  `yaml:"subsampling"`
	Format      string  `yaml:"format"`
}
