package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
fdtd:
  timesteps: 1000
boundaries:
  xmin: PEC
geometry:
  lines:
    x: [0, 1, 2]
    y: [0, 1, 2]
    z: [0, 1, 2]
`

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.FDTD.Timesteps)
	assert.Equal(t, DefaultEndCriteria, cfg.FDTD.EndCriteria)
	assert.Equal(t, DefaultOverSampling, cfg.FDTD.OverSampling)
	require.NotNil(t, cfg.Geometry)
	assert.Len(t, cfg.Geometry.Lines.X, 3)
}

func TestParseMissingSection(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no fdtd", "boundaries:\n  xmin: PEC\ngeometry:\n  lines:\n    x: [0, 1]\n"},
		{"no boundaries", "fdtd:\n  timesteps: 10\ngeometry:\n  lines:\n    x: [0, 1]\n"},
		{"no geometry", "fdtd:\n  timesteps: 10\nboundaries:\n  xmin: PEC\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("fdtd: [unclosed"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   FDTDConfig
		want FDTDConfig
	}{
		{
			"negative timesteps clamp to zero",
			FDTDConfig{Timesteps: -5, EndCriteria: 1e-5, OverSampling: 4},
			FDTDConfig{Timesteps: 0, EndCriteria: 1e-5, OverSampling: 4},
		},
		{
			"zero end criteria gets default",
			FDTDConfig{Timesteps: 10, OverSampling: 4},
			FDTDConfig{Timesteps: 10, EndCriteria: DefaultEndCriteria, OverSampling: 4},
		},
		{
			"oversampling zero clamps to minimum",
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: 0},
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: MinOverSampling},
		},
		{
			"oversampling one clamps to minimum",
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: 1},
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: MinOverSampling},
		},
		{
			"oversampling above minimum kept",
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: 6},
			FDTDConfig{Timesteps: 10, EndCriteria: 1e-6, OverSampling: 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{FDTD: tt.in}
			cfg.normalize()
			assert.Equal(t, tt.want, cfg.FDTD)
		})
	}
}

func TestEffectiveBudget(t *testing.T) {
	tests := []struct {
		name      string
		timesteps int64
		maxTime   float64
		dt        float64
		want      uint64
	}{
		{"no time cap", 1000, 0, 1e-12, 1000},
		{"cap tightens", 1000, 5e-10, 1e-12, 500},
		{"cap looser than budget is ignored", 1000, 5e-9, 1e-12, 1000},
		{"zero dt disables cap", 1000, 5e-10, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{FDTD: FDTDConfig{Timesteps: tt.timesteps, MaxTime: tt.maxTime}}
			assert.Equal(t, tt.want, cfg.EffectiveBudget(tt.dt))
		})
	}
}

func TestBoundaryFacesOrder(t *testing.T) {
	b := BoundaryConfig{XMin: "a", XMax: "b", YMin: "c", YMax: "d", ZMin: "e", ZMax: "f"}
	assert.Equal(t, [6]string{"a", "b", "c", "d", "e", "f"}, b.Faces())
}

func TestMurOverride(t *testing.T) {
	b := BoundaryConfig{MurPhaseVelocityYMax: 2e8}
	assert.Equal(t, 0.0, b.MurOverride(0))
	assert.Equal(t, 2e8, b.MurOverride(3))
}
