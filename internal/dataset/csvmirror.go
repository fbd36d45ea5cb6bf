package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReadTidyCSV reads a pre-wrangled tidy observation table from its CSV
// mirror, bypassing workbook extraction entirely. The mirror carries
// the tidy columns by name; missing abundances are blank cells. The
// variant supplies the categorical domains and group relabeling.
func ReadTidyCSV(r io.Reader, v Variant) (*TidyTable, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tidy mirror: %w", err)
	}

	nameCol, ok := header[ColComponentName]
	if !ok {
		return nil, fmt.Errorf("tidy mirror has no %s column", ColComponentName)
	}
	sampleCol, ok := header["sample_id"]
	if !ok {
		return nil, fmt.Errorf("tidy mirror has no sample_id column")
	}
	abundanceCol, ok := header["abundance"]
	if !ok {
		return nil, fmt.Errorf("tidy mirror has no abundance column")
	}

	get := func(row []string, name string) string {
		if i, ok := header[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	t := &TidyTable{Domains: v.Domains()}
	for i, row := range rows {
		o := Observation{
			ComponentName: row[nameCol],
			SampleID:      row[sampleCol],
			Abundance:     Missing(),
			Panel:         get(row, ColPanel),
			Description:   get(row, ColDescription),
			Genotype:      get(row, ColGenotype),
			Condition:     get(row, ColCondition),
			Sex:           get(row, ColSex),
			Batch:         get(row, ColBatch),
		}
		if cell := row[abundanceCol]; cell != "" {
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("tidy mirror row %d: failed to parse abundance: %v", i+2, err)
			}
			o.Abundance = val
		}
		if cell := get(row, ColCellNumber); cell != "" {
			n, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("tidy mirror row %d: failed to parse cell_number: %v", i+2, err)
			}
			o.CellNumber = n
		}
		o.Annotated = o.Genotype != ""
		if o.Annotated {
			o.Group = v.GroupLabel(o.Genotype, o.Condition)
		}
		t.Rows = append(t.Rows, o)
	}

	t.SortCanonical()
	return t, nil
}

// ReadStatsCSV reads the differential-statistics CSV mirror.
func ReadStatsCSV(r io.Reader) ([]DifferentialStatistic, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics mirror: %w", err)
	}

	nameCol, ok := header[ColComponentName]
	if !ok {
		return nil, fmt.Errorf("statistics mirror has no %s column", ColComponentName)
	}
	fcCol, ok := header[ColLogFC]
	if !ok {
		return nil, fmt.Errorf("statistics mirror has no %s column", ColLogFC)
	}
	pCol, ok := header[ColAdjPVal]
	if !ok {
		return nil, fmt.Errorf("statistics mirror has no %s column", ColAdjPVal)
	}

	stats := make([]DifferentialStatistic, 0, len(rows))
	for i, row := range rows {
		fc, err := strconv.ParseFloat(row[fcCol], 64)
		if err != nil {
			return nil, fmt.Errorf("statistics mirror row %d: failed to parse logFC: %v", i+2, err)
		}
		p, err := strconv.ParseFloat(row[pCol], 64)
		if err != nil {
			return nil, fmt.Errorf("statistics mirror row %d: failed to parse adj.P.Val: %v", i+2, err)
		}
		stats = append(stats, DifferentialStatistic{
			ComponentName: row[nameCol],
			LogFC:         fc,
			AdjPVal:       p,
		})
	}

	return stats, nil
}

func readCSV(r io.Reader) (rows [][]string, header map[string]int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no header row")
	}

	header = make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}
	return records[1:], header, nil
}
