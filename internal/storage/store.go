package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/analysis"
)

// Store persists analysis runs under a base directory, one subdirectory per
// run: metadata.json plus certificate.csv with the Lyapunov entries.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	System      string    `json:"system"`
	Timestamp   time.Time `json:"timestamp"`
	Horizon     int       `json:"horizon"`
	Period      int       `json:"period"`
	Valid       bool      `json:"valid"`
	Performance float64   `json:"performance"`
	Status      string    `json:"status"`
}

func (s *Store) Save(system string, horizon, periodLen int, result *analysis.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", system, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	perf := result.Performance
	if !result.Valid {
		// JSON has no +Inf; an invalid run stores a negative sentinel.
		perf = -1
	}
	meta := RunMetadata{
		ID:          runID,
		System:      system,
		Timestamp:   time.Now(),
		Horizon:     horizon,
		Period:      periodLen,
		Valid:       result.Valid,
		Performance: perf,
		Status:      result.Status.String(),
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "certificate.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"step", "row", "col", "value"}); err != nil {
		return "", err
	}
	for t, p := range result.Certificate {
		if p == nil {
			continue
		}
		r, c := p.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				row := []string{
					strconv.Itoa(t),
					strconv.Itoa(i),
					strconv.Itoa(j),
					strconv.FormatFloat(p.At(i, j), 'g', 12, 64),
				}
				if err := w.Write(row); err != nil {
					return "", err
				}
			}
		}
	}

	return runID, nil
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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
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
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadCertificate rebuilds the per-step Lyapunov matrices of a stored run.
// Steps absent from the file come back nil.
func (s *Store) LoadCertificate(runID string) ([]*mat.Dense, error) {
	csvPath := filepath.Join(s.baseDir, runID, "certificate.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []*mat.Dense{}, nil
	}

	type entry struct {
		step, row, col int
		value          float64
	}
	entries := make([]entry, 0, len(records)-1)
	steps := 0
	dims := map[int]int{}
	for _, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("storage: malformed certificate row %v", rec)
		}
		t, err1 := strconv.Atoi(rec[0])
		i, err2 := strconv.Atoi(rec[1])
		j, err3 := strconv.Atoi(rec[2])
		v, err4 := strconv.ParseFloat(rec[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("storage: malformed certificate row %v", rec)
		}
		entries = append(entries, entry{t, i, j, v})
		if t+1 > steps {
			steps = t + 1
		}
		if i+1 > dims[t] {
			dims[t] = i + 1
		}
		if j+1 > dims[t] {
			dims[t] = j + 1
		}
	}

	cert := make([]*mat.Dense, steps)
	for t, n := range dims {
		cert[t] = mat.NewDense(n, n, nil)
	}
	for _, e := range entries {
		cert[e.step].Set(e.row, e.col, e.value)
	}
	return cert, nil
}
