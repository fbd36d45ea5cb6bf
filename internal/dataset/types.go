// Package dataset implements the ingestion-and-tidying pipeline for
// published lipidomics workbooks: sheet extraction, relational joining,
// categorical normalization, and differential-significance filtering.
package dataset

import (
	"errors"
	"math"
)

// ErrEmptyResult is returned when the significance filter selects zero
// analytes. The pipeline fails loudly rather than proceeding with an
// empty table.
var ErrEmptyResult = errors.New("significance filter selected no analytes")

// Missing is the sentinel for an absent abundance value.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether an abundance value is absent.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// SampleAnnotation is one row of the sample_annotations sheet after
// projection: one row per sample, keyed by SampleID.
type SampleAnnotation struct {
	SampleID    string  `json:"sample_id"`
	Description string  `json:"description,omitempty"`
	CellNumber  float64 `json:"cell_number"`
	Genotype    string  `json:"genotype"`
	Condition   string  `json:"condition,omitempty"`
	Sex         string  `json:"sex"`
	Batch       string  `json:"batch"`
}

// FeatureAnnotation is one row of the feature_annotations sheet after
// column filtering and de-duplication: one row per analyte, keyed by
// ComponentName. Internal-standard rows never survive extraction.
type FeatureAnnotation struct {
	ComponentName string `json:"component_name"`
	Panel         string `json:"panel"`

	// Extra holds the sheet's remaining descriptive columns, minus the
	// instrument columns and the internal-standard flag.
	Extra map[string]string `json:"extra,omitempty"`
}

// AbundanceMeasurement is one cell of the wide abundance matrix in long
// form: one row per (analyte, sample) pair. A blank cell becomes a
// missing Abundance (NaN).
type AbundanceMeasurement struct {
	ComponentName string  `json:"component_name"`
	SampleID      string  `json:"sample_id"`
	Abundance     float64 `json:"abundance"`
}

// Observation is one row of the tidy observation table: the left join
// of feature and abundance rows to sample annotations. Annotated is
// false when the sample ID had no matching annotation; the row still
// survives with its categorical fields empty.
type Observation struct {
	ComponentName string  `json:"component_name"`
	Panel         string  `json:"panel"`
	SampleID      string  `json:"sample_id"`
	Abundance     float64 `json:"abundance"`

	Description string  `json:"description,omitempty"`
	CellNumber  float64 `json:"cell_number"`
	Genotype    string  `json:"genotype"`
	Condition   string  `json:"condition,omitempty"`
	Sex         string  `json:"sex"`
	Batch       string  `json:"batch"`
	Group       string  `json:"group"`
	Annotated   bool    `json:"annotated"`
}

// TidyTable is the analysis-ready observation table plus the schema
// that orders its categorical columns.
type TidyTable struct {
	Rows    []Observation
	Domains *DomainSet
}

// Len returns the number of observation rows.
func (t *TidyTable) Len() int { return len(t.Rows) }

// Components returns the distinct component names in factor order when
// the component domain is set, otherwise in order of first appearance.
func (t *TidyTable) Components() []string {
	seen := make(map[string]bool)
	var out []string
	if t.Domains != nil && t.Domains.Component != nil {
		for _, l := range t.Domains.Component.Levels {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, r := range t.Rows {
		if !seen[r.ComponentName] {
			seen[r.ComponentName] = true
			out = append(out, r.ComponentName)
		}
	}
	return out
}

// Samples returns the distinct sample IDs in sample-domain order.
func (t *TidyTable) Samples() []string {
	seen := make(map[string]bool)
	var out []string
	if t.Domains != nil && t.Domains.SampleID != nil {
		present := make(map[string]bool, len(t.Rows))
		for _, r := range t.Rows {
			present[r.SampleID] = true
		}
		for _, l := range t.Domains.SampleID.Levels {
			if present[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	for _, r := range t.Rows {
		if r.SampleID != "" && !seen[r.SampleID] {
			seen[r.SampleID] = true
			out = append(out, r.SampleID)
		}
	}
	return out
}

// DifferentialStatistic is one row of the differential-statistics
// sheet for one comparison: one row per analyte.
type DifferentialStatistic struct {
	ComponentName string  `json:"component_name"`
	LogFC         float64 `json:"logFC"`
	AdjPVal       float64 `json:"adj.P.Val"`
}
