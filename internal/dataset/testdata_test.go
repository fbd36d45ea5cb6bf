package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lipid-data/lipid.report/internal/fsutil"
	"github.com/lipid-data/lipid.report/internal/workbook"
)

// testVariant is a two-sample, cuprizone-shaped dataset for extractor
// and join tests.
func testVariant() Variant {
	return Variant{
		Name:                 "test",
		Title:                "Test lipidomics",
		SampleKey:            KeyRule{Delimiter: "_", Segment: 1},
		AbundancePrefix:      "LipidX_",
		DropColumnSubstrings: []string{"instrument", "m/z"},
		GroupSeparator:       "_",
		GroupLabels: map[string]string{
			"WT_Control":  "WT control",
			"Het_Control": "Het control",
		},
		ReferenceGroup: "WT control",
		domains: func() *DomainSet {
			return &DomainSet{
				SampleID:  NewFactorDomain("sample_id", "LA1C", "LA2C", "LA3C"),
				Genotype:  NewFactorDomain("genotype", "WT", "Het", "Hom"),
				Condition: NewFactorDomain("condition", "Control", "Cuprizone"),
				Sex:       NewFactorDomain("sex", "F", "M"),
				Batch:     NewFactorDomain("batch", "B1", "B2"),
				Group:     NewFactorDomain("group", "WT control", "Het control"),
			}
		},
	}
}

type sheetFixture struct {
	name string
	rows [][]string
}

// writeTestWorkbook saves an xlsx with the given sheets and returns its
// path.
func writeTestWorkbook(t *testing.T, sheets []sheetFixture) string {
	t.Helper()

	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet.name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// openTestWorkbook opens a fixture workbook through the real
// filesystem.
func openTestWorkbook(t *testing.T, path string) *workbook.Workbook {
	t.Helper()

	wb, err := workbook.Open(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}

// defaultSheets is a complete three-sheet fixture for the test variant:
// two annotated samples plus one sample column without annotation, two
// real analytes, one duplicate row, and one internal standard.
func defaultSheets() []sheetFixture {
	return []sheetFixture{
		{
			name: SheetSamples,
			rows: [][]string{
				{"sample", "description", "cell_number", "genotype", "condition", "sex", "batch"},
				{"LipidX_LA1C", "cortex", "1200", "WT", "Control", "F", "B1"},
				{"LipidX_LA2C", "cortex", "1350", "Het", "Control", "M", "B1"},
			},
		},
		{
			name: SheetFeatures,
			rows: [][]string{
				{"component_name", "panel", "lipid_class", "instrument_id", "m/z", "is_internal_standard"},
				{"PC(40:6)", "positive", "PC", "QTRAP-01", "834.6", "FALSE"},
				{"PC(40:6)", "positive", "PC-dup", "QTRAP-01", "834.6", "FALSE"},
				{"SM(d18:1/16:0)", "positive", "SM", "QTRAP-01", "703.6", "FALSE"},
				{"PC(12:0/12:0) IS", "positive", "IS", "QTRAP-01", "622.4", "TRUE"},
			},
		},
		{
			name: SheetAbundance,
			rows: [][]string{
				{"component_name", "retention_time", "LipidX_LA1C", "LipidX_LA2C", "LipidX_LA3C"},
				{"PC(40:6)", "7.2", "1.0", "3.0", ""},
				{"SM(d18:1/16:0)", "5.1", "0.5", "0.8", "0.9"},
				{"PC(12:0/12:0) IS", "4.0", "1.0", "1.0", "1.0"},
			},
		},
	}
}
