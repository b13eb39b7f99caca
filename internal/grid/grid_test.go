package grid

import "testing"

func lines(n int, step float64) []float64 {
	l := make([]float64, n)
	for i := range l {
		l[i] = float64(i) * step
	}
	return l
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		lines   [3][]float64
		wantErr bool
	}{
		{"valid", [3][]float64{lines(5, 1), lines(5, 1), lines(5, 1)}, false},
		{"too few lines", [3][]float64{lines(2, 1), lines(5, 1), lines(5, 1)}, true},
		{"non monotonic", [3][]float64{{0, 2, 1, 3}, lines(5, 1), lines(5, 1)}, true},
		{"duplicate line", [3][]float64{{0, 1, 1, 2}, lines(5, 1), lines(5, 1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(CartesianMesh, tt.lines)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNumCells(t *testing.T) {
	g, err := New(CartesianMesh, [3][]float64{lines(4, 1), lines(5, 1), lines(6, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.NumCells(); got != 4*5*6 {
		t.Errorf("NumCells() = %d, want %d", got, 4*5*6)
	}
}

func TestSnapBox(t *testing.T) {
	g, err := New(CartesianMesh, [3][]float64{lines(11, 1), lines(11, 1), lines(11, 1)})
	if err != nil {
		t.Fatal(err)
	}

	box, err := g.SnapBox([3]float64{1.9, 0, 0}, [3]float64{7.2, 10, 10})
	if err != nil {
		t.Fatalf("SnapBox failed: %v", err)
	}
	if box.Start[0] != 2 || box.Stop[0] != 7 {
		t.Errorf("x range = [%d, %d], want [2, 7]", box.Start[0], box.Stop[0])
	}

	// swapped coordinates resolve the same
	box2, err := g.SnapBox([3]float64{7.2, 10, 10}, [3]float64{1.9, 0, 0})
	if err != nil {
		t.Fatalf("SnapBox swapped failed: %v", err)
	}
	if box2 != box {
		t.Errorf("swapped box = %+v, want %+v", box2, box)
	}
}

func TestSnapBoxOutsideDomain(t *testing.T) {
	g, _ := New(CartesianMesh, [3][]float64{lines(5, 1), lines(5, 1), lines(5, 1)})
	if _, err := g.SnapBox([3]float64{20, 0, 0}, [3]float64{30, 1, 1}); err == nil {
		t.Error("expected error for box outside domain")
	}
}

func TestBoxExtents(t *testing.T) {
	b := Box{Start: [3]int{0, 0, 0}, Stop: [3]int{1, 7, 3}}
	if b.LongestDir() != 1 {
		t.Errorf("LongestDir() = %d, want 1", b.LongestDir())
	}
	if b.NumCells() != 2*8*4 {
		t.Errorf("NumCells() = %d, want %d", b.NumCells(), 2*8*4)
	}
}
