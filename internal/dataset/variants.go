package dataset

import (
	"fmt"
	"sort"
)

// Fixed sheet names shared by both published workbooks.
const (
	SheetSamples   = "sample_annotations"
	SheetFeatures  = "feature_annotations"
	SheetAbundance = "peak_area_ratio_to_is"
)

// Column names used by the extractors.
const (
	ColSample           = "sample"
	ColDescription      = "description"
	ColCellNumber       = "cell_number"
	ColGenotype         = "genotype"
	ColCondition        = "condition"
	ColSex              = "sex"
	ColBatch            = "batch"
	ColComponentName    = "component_name"
	ColPanel            = "panel"
	ColInternalStandard = "is_internal_standard"
	ColLogFC            = "logFC"
	ColAdjPVal          = "adj.P.Val"
)

// Variant describes one published dataset: where to fetch it, how its
// sample labels encode IDs, which columns to discard, and the
// enumerated categorical domains its tidy table is normalized against.
type Variant struct {
	Name  string
	Title string

	// WorkbookURL is the fixed location of the dataset workbook.
	WorkbookURL string

	// StatsURL/StatsSheet locate the differential-statistics workbook
	// and the sheet for the one comparison of interest. Empty for
	// variants without a statistics table.
	StatsURL   string
	StatsSheet string

	// Pre-wrangled CSV mirrors; an alternative input path that bypasses
	// extraction entirely.
	AbundanceMirrorURL string
	StatsMirrorURL     string

	// SampleKey parses sample IDs out of composite labels, applied
	// identically to the sample sheet and the abundance column headers
	// so keys match across tables.
	SampleKey KeyRule

	// AbundancePrefix identifies sample columns in the abundance sheet;
	// columns without the prefix are auxiliary and ignored.
	AbundancePrefix string

	// DropColumnSubstrings removes instrument-specific feature columns
	// by name match.
	DropColumnSubstrings []string

	// DropFeatureColumns removes named housekeeping columns from the
	// feature output.
	DropFeatureColumns []string

	// GroupSeparator joins genotype and condition into the raw group
	// composite; GroupLabels relabels composites to display values.
	GroupSeparator string
	GroupLabels    map[string]string

	// ReferenceGroup is the display-group used for median recentering.
	ReferenceGroup string

	// Default significance thresholds for the variant's comparison.
	FCThreshold  float64
	FDRThreshold float64

	domains func() *DomainSet
}

// Domains builds a fresh DomainSet for the variant.
func (v Variant) Domains() *DomainSet { return v.domains() }

// GroupLabel maps a raw genotype/condition composite to its display
// value. Composites without a declared label pass through unchanged and
// will surface as domain violations during validation.
func (v Variant) GroupLabel(genotype, condition string) string {
	raw := genotype
	if condition != "" {
		raw = genotype + v.GroupSeparator + condition
	}
	if label, ok := v.GroupLabels[raw]; ok {
		return label
	}
	return raw
}

// Cuprizone is the demyelination time-course lipidomics dataset:
// WT/Het/Hom animals under control or cuprizone diet.
var Cuprizone = Variant{
	Name:        "cuprizone",
	Title:       "Cuprizone cortex lipidomics",
	WorkbookURL: "https://raw.githubusercontent.com/lipid-data/datasets/main/cuprizone/cuprizone_lipidomics.xlsx",

	AbundanceMirrorURL: "https://raw.githubusercontent.com/lipid-data/datasets/main/cuprizone/cuprizone_tidy.csv",

	SampleKey:       KeyRule{Delimiter: "_", Segment: 1},
	AbundancePrefix: "LipidX_",

	DropColumnSubstrings: []string{"instrument", "m/z"},

	GroupSeparator: "_",
	GroupLabels: map[string]string{
		"WT_Control":    "WT control",
		"WT_Cuprizone":  "WT cuprizone",
		"Het_Control":   "Het control",
		"Het_Cuprizone": "Het cuprizone",
		"Hom_Control":   "Hom control",
		"Hom_Cuprizone": "Hom cuprizone",
	},
	ReferenceGroup: "WT control",

	domains: func() *DomainSet {
		return &DomainSet{
			SampleID: NewFactorDomain("sample_id", numberedIDs("LA", "C", 24)...),
			// Ordered by increasing transgene dosage.
			Genotype:  NewFactorDomain("genotype", "WT", "Het", "Hom"),
			Condition: NewFactorDomain("condition", "Control", "Cuprizone"),
			Sex:       NewFactorDomain("sex", "F", "M"),
			Batch:     NewFactorDomain("batch", "B1", "B2"),
			Group: NewFactorDomain("group",
				"WT control", "WT cuprizone",
				"Het control", "Het cuprizone",
				"Hom control", "Hom cuprizone"),
		}
	},
}

// AppSAA is the APP-SAA knock-in hippocampus lipidomics dataset, the
// variant with a differential-statistics table for the Hom-vs-WT
// comparison.
var AppSAA = Variant{
	Name:        "app-saa",
	Title:       "APP-SAA hippocampus lipidomics",
	WorkbookURL: "https://raw.githubusercontent.com/lipid-data/datasets/main/app-saa/app_saa_lipidomics.xlsx",

	StatsURL:   "https://raw.githubusercontent.com/lipid-data/datasets/main/app-saa/app_saa_limma.xlsx",
	StatsSheet: "APP_SAA_Hom-WT",

	AbundanceMirrorURL: "https://raw.githubusercontent.com/lipid-data/datasets/main/app-saa/app_saa_tidy.csv",
	StatsMirrorURL:     "https://raw.githubusercontent.com/lipid-data/datasets/main/app-saa/app_saa_limma.csv",

	SampleKey:       KeyRule{Delimiter: "_", Segment: 1},
	AbundancePrefix: "AD21_",

	DropColumnSubstrings: []string{"instrument", "m/z"},
	DropFeatureColumns:   []string{"row_id"},

	GroupSeparator: "_",
	GroupLabels: map[string]string{
		"WT":          "Wild type",
		"APP_SAA_Hom": "APP-SAA KI",
	},
	ReferenceGroup: "Wild type",

	FCThreshold:  0.2,
	FDRThreshold: 0.1,

	domains: func() *DomainSet {
		return &DomainSet{
			SampleID: NewFactorDomain("sample_id", numberedIDs("S", "", 16)...),
			Genotype: NewFactorDomain("genotype", "WT", "APP_SAA_Hom"),
			Sex:      NewFactorDomain("sex", "F", "M"),
			Batch:    NewFactorDomain("batch", "B1", "B2"),
			Group:    NewFactorDomain("group", "Wild type", "APP-SAA KI"),
		}
	},
}

// Variants indexes the known datasets by name.
var Variants = map[string]Variant{
	Cuprizone.Name: Cuprizone,
	AppSAA.Name:    AppSAA,
}

// VariantNames returns the registered variant names, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(Variants))
	for n := range Variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupVariant resolves a variant by name.
func LookupVariant(name string) (Variant, error) {
	v, ok := Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown dataset variant %q (known: %v)", name, VariantNames())
	}
	return v, nil
}

// numberedIDs enumerates the fixed sample naming scheme: prefix, 1-based
// number, optional suffix (e.g. LA1C..LA24C).
func numberedIDs(prefix, suffix string, n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, fmt.Sprintf("%s%d%s", prefix, i, suffix))
	}
	return ids
}
