// Package storage persists run artifacts: run metadata, probe time series and
// buffered field-dump snapshots. Writes happen only between engine batches.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) NewRunID(name string) string {
	return fmt.Sprintf("%s_%d", name, time.Now().Unix())
}

type RunMetadata struct {
	ID            string    `json:"id"`
	ConfigFile    string    `json:"config_file"`
	Timestamp     time.Time `json:"timestamp"`
	Engine        string    `json:"engine"`
	State         string    `json:"state"`
	Timesteps     uint64    `json:"timesteps"`
	Cells         uint64    `json:"cells"`
	ElapsedSec    float64   `json:"elapsed_sec"`
	MCellsPerSec  float64   `json:"mcells_per_sec"`
	EnergyDecayDB float64   `json:"energy_decay_db"`
}

func (s *Store) SaveMetadata(meta RunMetadata) error {
	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// AppendSeries appends rows to a probe's CSV, writing the header when the
// file does not exist yet. Samplers call this from FlushPending.
func (s *Store) AppendSeries(runID, name string, header []string, rows [][]string) error {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(runDir, name+".csv")
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if fresh {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is one buffered time-domain field dump frame.
type Snapshot struct {
	Timestep uint64    `json:"timestep"`
	Time     float64   `json:"time"`
	Dims     [3]int    `json:"dims"`
	Values   []float64 `json:"values"`
}

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

func (s *Store) WriteSnapshot(runID, name, format string, snap Snapshot) error {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	base := fmt.Sprintf("%s_%010d", name, snap.Timestep)

	switch format {
	case FormatJSON:
		f, err := os.Create(filepath.Join(runDir, base+".json"))
		if err != nil {
			return err
		}
		defer f.Close()
		return json.NewEncoder(f).Encode(snap)
	default:
		f, err := os.Create(filepath.Join(runDir, base+".csv"))
		if err != nil {
			return err
		}
		defer f.Close()
		w := csv.NewWriter(f)
		defer w.Flush()
		if err := w.Write([]string{"index", "value"}); err != nil {
			return err
		}
		for i, v := range snap.Values {
			row := []string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads back a probe CSV as (times, values), taking the first two
// columns and skipping rows that do not parse.
func (s *Store) LoadSeries(runID, name string) ([]float64, []float64, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), name+".csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	values := make([]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		t, err1 := strconv.ParseFloat(rec[0], 64)
		v, err2 := strconv.ParseFloat(rec[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		times = append(times, t)
		values = append(values, v)
	}
	return times, values, nil
}
