package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMetadataRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	meta := RunMetadata{
		ID:            "run_42",
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		Engine:        "multithread",
		State:         "converged",
		Timesteps:     1234,
		Cells:         1000,
		ElapsedSec:    1.5,
		MCellsPerSec:  0.8,
		EnergyDecayDB: 61.2,
	}
	if err := s.SaveMetadata(meta); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load("run_42")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Timestamp.Equal(meta.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, meta.Timestamp)
	}
	got.Timestamp = meta.Timestamp
	if *got != meta {
		t.Errorf("Load() = %+v, want %+v", *got, meta)
	}
}

func TestAppendSeriesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	header := []string{"time", "value"}

	if err := s.AppendSeries("r", "probe", header, [][]string{{"0", "1.5"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendSeries("r", "probe", header, [][]string{{"1", "2.5"}, {"2", "3.5"}}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "r", "probe.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "time,value"); got != 1 {
		t.Errorf("header written %d times, want 1", got)
	}

	times, values, err := s.LoadSeries("r", "probe")
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 3 || len(values) != 3 {
		t.Fatalf("loaded %d/%d rows, want 3/3", len(times), len(values))
	}
	if values[2] != 3.5 {
		t.Errorf("values[2] = %g, want 3.5", values[2])
	}
}

func TestListSkipsBrokenRuns(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.SaveMetadata(RunMetadata{ID: "ok"}); err != nil {
		t.Fatal(err)
	}
	// directory without metadata must not break listing
	if err := os.MkdirAll(filepath.Join(dir, "broken"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "ok" {
		t.Errorf("List() = %+v, want just the ok run", runs)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := s.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = (%v, %v), want empty and no error", runs, err)
	}
}

func TestWriteSnapshotFormats(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	snap := Snapshot{Timestep: 7, Time: 7e-12, Dims: [3]int{2, 1, 1}, Values: []float64{1, 2}}

	if err := s.WriteSnapshot("r", "et", FormatCSV, snap); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "r", "et_0000000007.csv")); err != nil {
		t.Errorf("csv snapshot missing: %v", err)
	}

	if err := s.WriteSnapshot("r", "et", FormatJSON, snap); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "r", "et_0000000007.json")); err != nil {
		t.Errorf("json snapshot missing: %v", err)
	}
}
