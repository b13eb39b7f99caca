package geometry

import "testing"

func TestHasDispersive(t *testing.T) {
	d := &Description{Materials: []Material{{Name: "a", Kind: MaterialNormal}}}
	if d.HasDispersive() {
		t.Error("HasDispersive() = true for normal materials only")
	}
	d.Materials = append(d.Materials, Material{Name: "b", Kind: MaterialDispersive})
	if !d.HasDispersive() {
		t.Error("HasDispersive() = false with a dispersive region present")
	}
}

func TestLineSetAxes(t *testing.T) {
	l := LineSet{X: []float64{0, 1}, Y: []float64{0, 2}, Z: []float64{0, 3}}
	axes := l.Axes()
	if axes[0][1] != 1 || axes[1][1] != 2 || axes[2][1] != 3 {
		t.Errorf("Axes() = %v, want per-axis lines in x, y, z order", axes)
	}
}
