// Package config loads and normalizes the YAML simulation description
// consumed by the session builder.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fdtdlab/fdtdlab/internal/geometry"
)

const (
	DefaultEndCriteria  = 1e-6
	DefaultOverSampling = 4
	MinOverSampling     = 2
)

type Config struct {
	FDTD       FDTDConfig            `yaml:"fdtd"`
	Boundaries BoundaryConfig        `yaml:"boundaries"`
	Excitation ExcitationConfig      `yaml:"excitation"`
	Geometry   *geometry.Description `yaml:"geometry"`
}

type FDTDConfig struct {
	Timesteps      int64     `yaml:"timesteps"`
	EndCriteria    float64   `yaml:"end_criteria"`
	OverSampling   int       `yaml:"oversampling"`
	MaxTime        float64   `yaml:"max_time"`
	Timestep       float64   `yaml:"timestep"`
	CylinderCoords bool      `yaml:"cylinder_coords"`
	MultiGrid      []float64 `yaml:"multigrid"`
}

type BoundaryConfig struct {
	XMin string `yaml:"xmin"`
	XMax string `yaml:"xmax"`
	YMin string `yaml:"ymin"`
	YMax string `yaml:"ymax"`
	ZMin string `yaml:"zmin"`
	ZMax string `yaml:"zmax"`

	MurPhaseVelocity     float64 `yaml:"mur_phase_velocity"`
	MurPhaseVelocityXMin float64 `yaml:"mur_phase_velocity_xmin"`
	MurPhaseVelocityXMax float64 `yaml:"mur_phase_velocity_xmax"`
	MurPhaseVelocityYMin float64 `yaml:"mur_phase_velocity_ymin"`
	MurPhaseVelocityYMax float64 `yaml:"mur_phase_velocity_ymax"`
	MurPhaseVelocityZMin float64 `yaml:"mur_phase_velocity_zmin"`
	MurPhaseVelocityZMax float64 `yaml:"mur_phase_velocity_zmax"`

	PMLGrading string `yaml:"pml_grading"`
}

// Faces returns the six per-face boundary tokens in canonical order:
// xmin, xmax, ymin, ymax, zmin, zmax.
func (b BoundaryConfig) Faces() [6]string {
	return [6]string{b.XMin, b.XMax, b.YMin, b.YMax, b.ZMin, b.ZMax}
}

// MurOverride returns the per-face MUR phase-velocity override for a face
// index, 0 meaning unset.
func (b BoundaryConfig) MurOverride(face int) float64 {
	return [6]float64{
		b.MurPhaseVelocityXMin, b.MurPhaseVelocityXMax,
		b.MurPhaseVelocityYMin, b.MurPhaseVelocityYMax,
		b.MurPhaseVelocityZMin, b.MurPhaseVelocityZMax,
	}[face]
}

type ExcitationConfig struct {
	F0      float64        `yaml:"f0"`
	FC      float64        `yaml:"fc"`
	Sources []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	Delay  uint64           `yaml:"delay"`
	Weight float64          `yaml:"weight"`
	Dir    int              `yaml:"dir"`
	Box    geometry.BoxSpec `yaml:"box"`
}

func DefaultConfig() *Config {
	return &Config{
		FDTD: FDTDConfig{
			EndCriteria:  DefaultEndCriteria,
			OverSampling: DefaultOverSampling,
		},
	}
}

// Load reads and normalizes a configuration file. A structurally invalid file
// or one missing a mandatory section is a fatal error for the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for _, required := range []string{"fdtd", "boundaries", "geometry"} {
		if _, ok := sections[required]; !ok {
			return nil, fmt.Errorf("config: missing mandatory section %q", required)
		}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.FDTD.Timesteps < 0 {
		c.FDTD.Timesteps = 0
	}
	if c.FDTD.EndCriteria == 0 {
		c.FDTD.EndCriteria = DefaultEndCriteria
	}
	if c.FDTD.OverSampling < MinOverSampling {
		c.FDTD.OverSampling = MinOverSampling
	}
}

// EffectiveBudget converts the declared timestep budget, optionally capped by
// the maximum simulated time for the given timestep duration. The cap only
// ever tightens the budget.
func (c *Config) EffectiveBudget(dt float64) uint64 {
	budget := uint64(c.FDTD.Timesteps)
	if c.FDTD.MaxTime > 0 && dt > 0 {
		maxTS := uint64(c.FDTD.MaxTime / dt)
		if maxTS > 0 && maxTS < budget {
			budget = maxTS
		}
	}
	return budget
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
