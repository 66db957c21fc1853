package storage

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/analysis"
	"github.com/Peragore/iqcToolbox/internal/lmi"
)

func TestSaveListLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	res := &analysis.Result{
		Valid:       true,
		Performance: 2,
		Status:      lmi.StatusOptimal,
		Certificate: []*mat.Dense{
			mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 3}),
			nil,
		},
	}
	runID, err := st.Save("differencer", 0, 2, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("list = %+v, want the saved run", runs)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !meta.Valid || meta.Performance != 2 || meta.Period != 2 {
		t.Errorf("metadata did not survive: %+v", meta)
	}

	cert, err := st.LoadCertificate(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cert) != 1 {
		t.Fatalf("certificate has %d steps, want 1 (trailing nil is not stored)", len(cert))
	}
	if got := cert[0].At(0, 1); got != 0.5 {
		t.Errorf("certificate entry = %v, want 0.5", got)
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
