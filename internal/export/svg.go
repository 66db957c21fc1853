package export

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// CertificateSVG renders the trace of the periodic Lyapunov certificate as
// an SVG polyline, one sample per stored step tiled over cycles so short
// periods stay readable. Returns "" when there is nothing to draw.
func CertificateSVG(cert []*mat.Dense, width, height int, strokeColor string) string {
	traces := make([]float64, 0, len(cert))
	any := false
	for _, p := range cert {
		v := 0.0
		if p != nil {
			any = true
			n, _ := p.Dims()
			for i := 0; i < n; i++ {
				v += p.At(i, i)
			}
		}
		traces = append(traces, v)
	}
	if !any || len(traces) == 0 {
		return ""
	}

	data := traces
	for len(data) < 24 {
		data = append(data, traces...)
	}
	return SeriesSVG(data, width, height, strokeColor)
}

// SeriesSVG plots one scalar series against its sample index.
func SeriesSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	step := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
