// Package heatmap defines the configuration record handed to the
// visualization collaborators and adapters that render a tidy table
// through them. Clustering, dendrogram layout, color-scale math, and
// annotation drawing are the collaborator's concern; this package only
// assembles the value matrix and passes configuration through.
package heatmap

import (
	"fmt"

	"github.com/lipid-data/lipid.report/internal/dataset"
)

// ScalingMode selects how values are transformed before rendering.
type ScalingMode string

const (
	ScaleNone ScalingMode = "none"
	ScaleRow  ScalingMode = "row" // z-score each analyte across samples
)

// Clustering names the method and per-axis enablement passed to the
// collaborator. Disabling the row axis preserves the table's factor
// order (e.g. fold-change rank after the significance filter).
type Clustering struct {
	Method  string `json:"method"` // e.g. "ward.D2", "complete"
	Rows    bool   `json:"rows"`
	Columns bool   `json:"columns"`
}

// ViridisColors is the default color scale, lowest to highest value.
var ViridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// TileAnnotation is a categorical annotation strip directive: which
// column to show and how to color it.
type TileAnnotation struct {
	Column  string            `json:"column"`
	Palette map[string]string `json:"palette,omitempty"`
	Size    float64           `json:"size,omitempty"`
}

// PointAnnotation is a numeric annotation directive (e.g. cell_number).
type PointAnnotation struct {
	Column string  `json:"column"`
	Size   float64 `json:"size,omitempty"`
}

// SymbolOverlay marks cells matching a predicate with a symbol (e.g. a
// significance star). Placement is the collaborator's concern.
type SymbolOverlay struct {
	Symbol    string                           `json:"symbol"`
	Predicate func(o dataset.Observation) bool `json:"-"`
}

// Spec is the full configuration record handed to a renderer together
// with the tidy table.
type Spec struct {
	Title string `json:"title"`

	RowKey    string `json:"row_key"`    // component_name
	ColumnKey string `json:"column_key"` // sample_id
	Value     string `json:"value"`      // abundance

	Scaling    ScalingMode `json:"scaling"`
	Clustering Clustering  `json:"clustering"`

	// Colors are the scale stops passed to the collaborator untouched.
	Colors []string `json:"colors"`

	// SplitBy names a grouping column for panel splitting.
	SplitBy string `json:"split_by,omitempty"`

	Tiles    []TileAnnotation  `json:"tiles,omitempty"`
	Points   []PointAnnotation `json:"points,omitempty"`
	Overlays []SymbolOverlay   `json:"overlays,omitempty"`
}

// Default returns the spec both dataset variants start from.
func Default(title string) Spec {
	return Spec{
		Title:      title,
		RowKey:     "component_name",
		ColumnKey:  "sample_id",
		Value:      "abundance",
		Scaling:    ScaleRow,
		Clustering: Clustering{Method: "ward.D2", Rows: true, Columns: false},
		Colors:     ViridisColors,
	}
}

// AnnotationKind classifies where an annotation column attaches.
type AnnotationKind int

const (
	InvalidAnnotation AnnotationKind = iota
	RowAnnotation
	ColumnAnnotation
)

// AnnotationPlacement is the tagged result of classifying an
// annotation column: row, column, or invalid with a reason.
type AnnotationPlacement struct {
	Kind   AnnotationKind
	Reason string // set when Kind is InvalidAnnotation
}

// ClassifyAnnotation decides once, by a uniqueness-of-mapping check,
// whether a column annotates rows (its value is determined by the
// component) or columns (determined by the sample). A column constant
// across the whole table is determined by both keys and classifies as
// a row annotation. Anything else is invalid with a reason.
func ClassifyAnnotation(t *dataset.TidyTable, column string) AnnotationPlacement {
	values := make([]string, 0, t.Len())
	for _, o := range t.Rows {
		v, ok := columnValue(o, column)
		if !ok {
			return AnnotationPlacement{
				Kind:   InvalidAnnotation,
				Reason: fmt.Sprintf("unknown column %q", column),
			}
		}
		values = append(values, v)
	}

	if determinedBy(t, values, func(o dataset.Observation) string { return o.ComponentName }) {
		return AnnotationPlacement{Kind: RowAnnotation}
	}
	if determinedBy(t, values, func(o dataset.Observation) string { return o.SampleID }) {
		return AnnotationPlacement{Kind: ColumnAnnotation}
	}
	return AnnotationPlacement{
		Kind:   InvalidAnnotation,
		Reason: fmt.Sprintf("column %q varies within both rows and columns", column),
	}
}

func determinedBy(t *dataset.TidyTable, values []string, key func(dataset.Observation) string) bool {
	seen := make(map[string]string)
	for i, o := range t.Rows {
		k := key(o)
		if prev, ok := seen[k]; ok {
			if prev != values[i] {
				return false
			}
			continue
		}
		seen[k] = values[i]
	}
	return true
}

func columnValue(o dataset.Observation, column string) (string, bool) {
	switch column {
	case "component_name":
		return o.ComponentName, true
	case "panel":
		return o.Panel, true
	case "sample_id":
		return o.SampleID, true
	case "description":
		return o.Description, true
	case "genotype":
		return o.Genotype, true
	case "condition":
		return o.Condition, true
	case "sex":
		return o.Sex, true
	case "batch":
		return o.Batch, true
	case "group":
		return o.Group, true
	}
	return "", false
}

// Matrix is the dense value matrix a renderer draws: one row per
// component, one column per sample, missing cells as NaN.
type Matrix struct {
	RowLabels    []string
	ColumnLabels []string
	Values       [][]float64 // [row][col]
}

// BuildMatrix pivots the tidy table back to wide form in factor order
// and applies the spec's scaling mode.
func BuildMatrix(t *dataset.TidyTable, spec Spec) (*Matrix, error) {
	rows := t.Components()
	cols := t.Samples()
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("nothing to render: %d components, %d samples", len(rows), len(cols))
	}

	rowIdx := make(map[string]int, len(rows))
	for i, r := range rows {
		rowIdx[r] = i
	}
	colIdx := make(map[string]int, len(cols))
	for i, c := range cols {
		colIdx[c] = i
	}

	values := make([][]float64, len(rows))
	for i := range values {
		values[i] = make([]float64, len(cols))
		for j := range values[i] {
			values[i][j] = dataset.Missing()
		}
	}
	for _, o := range t.Rows {
		if o.SampleID == "" {
			continue
		}
		values[rowIdx[o.ComponentName]][colIdx[o.SampleID]] = o.Abundance
	}

	switch spec.Scaling {
	case ScaleRow:
		for i := range values {
			values[i] = dataset.ScaleRow(values[i])
		}
	case ScaleNone, "":
	default:
		return nil, fmt.Errorf("unknown scaling mode %q", spec.Scaling)
	}

	return &Matrix{RowLabels: rows, ColumnLabels: cols, Values: values}, nil
}
