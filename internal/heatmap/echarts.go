package heatmap

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lipid-data/lipid.report/internal/dataset"
)

// RenderHTML renders the tidy table as an interactive ECharts heatmap.
// The preview draws the value matrix and color scale; clustering and
// annotation strips are left to the full collaborator and are carried
// in the spec untouched. Missing cells are simply not emitted, so they
// render blank.
func RenderHTML(w io.Writer, t *dataset.TidyTable, spec Spec) error {
	m, err := BuildMatrix(t, spec)
	if err != nil {
		return err
	}

	min, max := math.Inf(1), math.Inf(-1)
	data := make([]opts.HeatMapData, 0, len(m.RowLabels)*len(m.ColumnLabels))
	for r, row := range m.Values {
		for c, v := range row {
			if dataset.IsMissing(v) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			// ECharts draws category y upwards; flip so the first
			// component is the top row.
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, len(m.RowLabels) - 1 - r, v}})
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("no observed values to render")
	}

	yLabels := make([]string, len(m.RowLabels))
	for i, l := range m.RowLabels {
		yLabels[len(m.RowLabels)-1-i] = l
	}

	colors := spec.Colors
	if len(colors) == 0 {
		colors = ViridisColors
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: spec.Title, Width: "1200px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    spec.Title,
			Subtitle: fmt.Sprintf("analytes=%d samples=%d scaling=%s", len(m.RowLabels), len(m.ColumnLabels), scalingLabel(spec.Scaling)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: m.ColumnLabels, AxisLabel: &opts.AxisLabel{Rotate: 45, Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	hm.AddSeries("abundance", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	return nil
}

func scalingLabel(m ScalingMode) string {
	if m == "" {
		return string(ScaleNone)
	}
	return string(m)
}
