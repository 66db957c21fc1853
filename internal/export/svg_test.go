package export

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCertificateSVG(t *testing.T) {
	cert := []*mat.Dense{
		mat.NewDense(2, 2, []float64{1, 0, 0, 2}),
		mat.NewDense(1, 1, []float64{5}),
	}
	svg := CertificateSVG(cert, 640, 240, "#00ff00")
	if !strings.HasPrefix(svg, `<?xml`) || !strings.Contains(svg, "<path") {
		t.Errorf("unexpected svg output: %.80s", svg)
	}
}

func TestCertificateSVGEmpty(t *testing.T) {
	if svg := CertificateSVG([]*mat.Dense{nil, nil}, 640, 240, "#fff"); svg != "" {
		t.Errorf("stateless certificate should produce no plot, got %.40s", svg)
	}
	if svg := CertificateSVG(nil, 640, 240, "#fff"); svg != "" {
		t.Errorf("nil certificate should produce no plot, got %.40s", svg)
	}
}

func TestSeriesSVGTooShort(t *testing.T) {
	if svg := SeriesSVG([]float64{1}, 100, 100, "#fff"); svg != "" {
		t.Error("single sample should produce no plot")
	}
}
