package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lipid-data/lipid.report/internal/workbook"
)

// ExtractSamples reads the sample_annotations sheet and projects it to
// one SampleAnnotation per row. Sample IDs are parsed from the
// composite label column with the variant's key rule; a label that
// violates the rule is a fatal MalformedKeyError.
func ExtractSamples(wb *workbook.Workbook, v Variant) ([]SampleAnnotation, error) {
	sheet, err := wb.Sheet(SheetSamples)
	if err != nil {
		return nil, err
	}

	labelCol, err := sheet.MustCol(ColSample)
	if err != nil {
		return nil, err
	}
	genotypeCol, err := sheet.MustCol(ColGenotype)
	if err != nil {
		return nil, err
	}
	descCol := sheet.Col(ColDescription)
	cellCol := sheet.Col(ColCellNumber)
	condCol := sheet.Col(ColCondition)
	sexCol := sheet.Col(ColSex)
	batchCol := sheet.Col(ColBatch)

	samples := make([]SampleAnnotation, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		id, err := v.SampleKey.Parse(row[labelCol])
		if err != nil {
			return nil, fmt.Errorf("sample_annotations row %d: %w", i+2, err)
		}

		s := SampleAnnotation{
			SampleID:   id,
			Genotype:   row[genotypeCol],
			CellNumber: math.NaN(),
		}
		if descCol >= 0 {
			s.Description = row[descCol]
		}
		if cellCol >= 0 && row[cellCol] != "" {
			n, err := strconv.ParseFloat(row[cellCol], 64)
			if err != nil {
				return nil, fmt.Errorf("sample_annotations row %d: failed to parse cell_number: %v", i+2, err)
			}
			s.CellNumber = n
		}
		if condCol >= 0 {
			s.Condition = row[condCol]
		}
		if sexCol >= 0 {
			s.Sex = row[sexCol]
		}
		if batchCol >= 0 {
			s.Batch = row[batchCol]
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// ExtractFeatures reads the feature_annotations sheet, removes
// instrument-specific columns by name match, de-duplicates rows by
// component_name (first occurrence wins, order preserved), drops rows
// flagged as internal standards, and drops the flag column plus any
// variant housekeeping columns from the output.
func ExtractFeatures(wb *workbook.Workbook, v Variant) ([]FeatureAnnotation, error) {
	sheet, err := wb.Sheet(SheetFeatures)
	if err != nil {
		return nil, err
	}

	nameCol, err := sheet.MustCol(ColComponentName)
	if err != nil {
		return nil, err
	}
	panelCol := sheet.Col(ColPanel)
	isCol := sheet.Col(ColInternalStandard)

	drop := func(col string) bool {
		if col == ColComponentName || col == ColPanel || col == ColInternalStandard {
			return true
		}
		for _, sub := range v.DropColumnSubstrings {
			if strings.Contains(strings.ToLower(col), strings.ToLower(sub)) {
				return true
			}
		}
		for _, name := range v.DropFeatureColumns {
			if col == name {
				return true
			}
		}
		return false
	}

	seen := make(map[string]bool)
	features := make([]FeatureAnnotation, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name := row[nameCol]
		if seen[name] {
			continue
		}
		seen[name] = true

		if isCol >= 0 && truthy(row[isCol]) {
			continue
		}

		f := FeatureAnnotation{ComponentName: name}
		if panelCol >= 0 {
			f.Panel = row[panelCol]
		}
		for c, col := range sheet.Columns {
			if drop(col) || col == "" {
				continue
			}
			if f.Extra == nil {
				f.Extra = make(map[string]string)
			}
			f.Extra[col] = row[c]
		}
		features = append(features, f)
	}

	return features, nil
}

// ExtractAbundances reads the wide abundance sheet and melts it to one
// AbundanceMeasurement per (analyte, sample) cell. Sample columns are
// identified by the variant's fixed prefix; their composite headers are
// parsed with the same key rule as the sample sheet so keys match
// across tables. Blank cells become missing abundances. Emission order
// is not part of the contract; the join restores canonical order.
func ExtractAbundances(wb *workbook.Workbook, v Variant) ([]AbundanceMeasurement, error) {
	sheet, err := wb.Sheet(SheetAbundance)
	if err != nil {
		return nil, err
	}

	nameCol, err := sheet.MustCol(ColComponentName)
	if err != nil {
		return nil, err
	}

	type sampleCol struct {
		idx int
		id  string
	}
	var cols []sampleCol
	for c, col := range sheet.Columns {
		if !strings.HasPrefix(col, v.AbundancePrefix) {
			continue
		}
		id, err := v.SampleKey.Parse(col)
		if err != nil {
			return nil, fmt.Errorf("%s column %q: %w", SheetAbundance, col, err)
		}
		cols = append(cols, sampleCol{idx: c, id: id})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("sheet %q has no sample columns with prefix %q", SheetAbundance, v.AbundancePrefix)
	}

	measurements := make([]AbundanceMeasurement, 0, len(sheet.Rows)*len(cols))
	for i, row := range sheet.Rows {
		name := row[nameCol]
		for _, sc := range cols {
			m := AbundanceMeasurement{
				ComponentName: name,
				SampleID:      sc.id,
				Abundance:     Missing(),
			}
			if cell := row[sc.idx]; cell != "" {
				val, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%s row %d column %s: failed to parse abundance: %v",
						SheetAbundance, i+2, sheet.Columns[sc.idx], err)
				}
				m.Abundance = val
			}
			measurements = append(measurements, m)
		}
	}

	return measurements, nil
}

// ExtractStats reads one comparison sheet of a differential-statistics
// workbook: component_name, logFC, adj.P.Val.
func ExtractStats(wb *workbook.Workbook, sheetName string) ([]DifferentialStatistic, error) {
	sheet, err := wb.Sheet(sheetName)
	if err != nil {
		return nil, err
	}

	nameCol, err := sheet.MustCol(ColComponentName)
	if err != nil {
		return nil, err
	}
	fcCol, err := sheet.MustCol(ColLogFC)
	if err != nil {
		return nil, err
	}
	pCol, err := sheet.MustCol(ColAdjPVal)
	if err != nil {
		return nil, err
	}

	stats := make([]DifferentialStatistic, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		fc, err := strconv.ParseFloat(row[fcCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: failed to parse logFC: %v", sheetName, i+2, err)
		}
		p, err := strconv.ParseFloat(row[pCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: failed to parse adj.P.Val: %v", sheetName, i+2, err)
		}
		stats = append(stats, DifferentialStatistic{
			ComponentName: row[nameCol],
			LogFC:         fc,
			AdjPVal:       p,
		})
	}

	return stats, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
