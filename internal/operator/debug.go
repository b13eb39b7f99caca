package operator

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// DebugFlags request auxiliary dumps during Bake for external visualization.
// They have no effect on the computed coefficients.
type DebugFlags uint

const (
	DebugMaterial DebugFlags = 1 << iota
	DebugOperator
	DebugPEC
)

func (o *Operator) writeDebugDumps(flags DebugFlags, dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if flags&DebugMaterial != 0 {
		rows := o.cellRows(func(p int) []string {
			return []string{
				strconv.FormatFloat(o.epsR[p], 'g', -1, 64),
				strconv.FormatFloat(o.mueR[p], 'g', -1, 64),
				strconv.FormatFloat(o.kappa[p], 'g', -1, 64),
			}
		})
		if err := writeCSV(filepath.Join(dir, "material_dump.csv"), []string{"i", "j", "k", "eps_r", "mue_r", "kappa"}, rows); err != nil {
			return err
		}
	}
	if flags&DebugOperator != 0 {
		rows := o.cellRows(func(p int) []string {
			return []string{
				strconv.FormatFloat(o.VV[0][p], 'g', -1, 64),
				strconv.FormatFloat(o.VI[0][p], 'g', -1, 64),
				strconv.FormatFloat(o.II[0][p], 'g', -1, 64),
				strconv.FormatFloat(o.IV[0][p], 'g', -1, 64),
			}
		})
		if err := writeCSV(filepath.Join(dir, "operator_dump.csv"), []string{"i", "j", "k", "vv", "vi", "ii", "iv"}, rows); err != nil {
			return err
		}
	}
	if flags&DebugPEC != 0 {
		rows := o.cellRows(func(p int) []string {
			pec := "0"
			if o.kappa[p] > 1e6 { // metal-like conductivity
				pec = "1"
			}
			return []string{pec}
		})
		if err := writeCSV(filepath.Join(dir, "pec_dump.csv"), []string{"i", "j", "k", "pec"}, rows); err != nil {
			return err
		}
	}
	return nil
}

func (o *Operator) cellRows(vals func(p int) []string) [][]string {
	rows := make([][]string, 0, o.nx*o.ny*o.nz)
	for i := 0; i < o.nx; i++ {
		for j := 0; j < o.ny; j++ {
			for k := 0; k < o.nz; k++ {
				row := []string{strconv.Itoa(i), strconv.Itoa(j), strconv.Itoa(k)}
				rows = append(rows, append(row, vals(o.Idx(i, j, k))...))
			}
		}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
