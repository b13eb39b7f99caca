package operator

// EngineHook is the engine-side half of an extension. Hooks run on the
// engine's thread between field-update phases; they are never invoked
// concurrently with the update loops.
type EngineHook interface {
	Name() string
	ApplyVoltages(volt *[3][]float64)
	ApplyCurrents(curr *[3][]float64)
}

// Extension augments the operator with a boundary condition or material
// effect. Build runs during Bake in attach order: absorbing boundaries first,
// then the PML construction, then dispersive material. Hook is valid only
// after Build.
type Extension interface {
	Name() string
	Build() error
	Hook() EngineHook
}
