package heatmap

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lipid-data/lipid.report/internal/dataset"
)

// RenderPNG renders the tidy table as a static PNG heatmap via
// gonum/plot. Like the HTML preview, only the value matrix and color
// mapping are drawn here; the rest of the spec passes through to the
// full collaborator.
func RenderPNG(w io.Writer, t *dataset.TidyTable, spec Spec) error {
	m, err := BuildMatrix(t, spec)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.ColumnKey
	p.Y.Label.Text = spec.RowKey

	grid := &matrixGrid{m: m}
	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	// Y is flipped in matrixGrid so the first analyte draws on top;
	// flip the labels to match.
	p.X.Tick.Marker = labelTicks(m.ColumnLabels)
	p.Y.Tick.Marker = labelTicks(reversed(m.RowLabels))
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -0.9

	width := vg.Length(2+len(m.ColumnLabels)) * vg.Centimeter / 2
	height := vg.Length(2+len(m.RowLabels)) * vg.Centimeter / 4
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to prepare PNG writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	return nil
}

// matrixGrid adapts a Matrix to plotter.GridXYZ. Row 0 is drawn at the
// top, matching the table's factor order.
type matrixGrid struct {
	m *Matrix
}

func (g *matrixGrid) Dims() (c, r int) {
	return len(g.m.ColumnLabels), len(g.m.RowLabels)
}

func (g *matrixGrid) Z(c, r int) float64 {
	// gonum draws row 0 at the bottom; flip to keep first analyte on top.
	return g.m.Values[len(g.m.RowLabels)-1-r][c]
}

func (g *matrixGrid) X(c int) float64 { return float64(c) }
func (g *matrixGrid) Y(r int) float64 { return float64(r) }

func reversed(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[len(labels)-1-i] = l
	}
	return out
}

// labelTicks places one tick per category index.
type labelTicks []string

func (lt labelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, label := range lt {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: label})
	}
	return ticks
}
