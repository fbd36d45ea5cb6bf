package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinScenario(t *testing.T) {
	t.Parallel()

	// The literal two-sample scenario: joined table has exactly two
	// rows and row scaling z-scores them to -1 and +1.
	v := testVariant()
	samples := []SampleAnnotation{
		{SampleID: "LA1C", Genotype: "WT", Condition: "Control"},
		{SampleID: "LA2C", Genotype: "Het", Condition: "Control"},
	}
	features := []FeatureAnnotation{{ComponentName: "PC(40:6)"}}
	abundances := []AbundanceMeasurement{
		{ComponentName: "PC(40:6)", SampleID: "LA1C", Abundance: 1.0},
		{ComponentName: "PC(40:6)", SampleID: "LA2C", Abundance: 3.0},
	}

	table := Join(features, abundances, samples, v)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "LA1C", table.Rows[0].SampleID)
	assert.Equal(t, "WT control", table.Rows[0].Group)
	assert.Equal(t, "Het control", table.Rows[1].Group)

	z := ScaleRow([]float64{table.Rows[0].Abundance, table.Rows[1].Abundance})
	assert.InDelta(t, -1.0, z[0], 1e-12)
	assert.InDelta(t, 1.0, z[1], 1e-12)
}

func TestJoinKeepsDrivingRows(t *testing.T) {
	t.Parallel()

	v := testVariant()
	samples := []SampleAnnotation{{SampleID: "LA1C", Genotype: "WT", Condition: "Control"}}
	features := []FeatureAnnotation{
		{ComponentName: "PC(40:6)"},
		{ComponentName: "Cer(d18:1/24:1)"}, // no measurements at all
	}
	abundances := []AbundanceMeasurement{
		{ComponentName: "PC(40:6)", SampleID: "LA1C", Abundance: 1.0},
		{ComponentName: "PC(40:6)", SampleID: "LA3C", Abundance: 2.0}, // sample without annotation
	}

	table := Join(features, abundances, samples, v)

	// Left-join cardinality: nothing from the driving side is dropped.
	require.Equal(t, 3, table.Len())

	byComponent := make(map[string][]Observation)
	for _, r := range table.Rows {
		byComponent[r.ComponentName] = append(byComponent[r.ComponentName], r)
	}

	// Feature without measurements survives with a missing abundance.
	orphanFeature := byComponent["Cer(d18:1/24:1)"]
	require.Len(t, orphanFeature, 1)
	assert.True(t, IsMissing(orphanFeature[0].Abundance))
	assert.Empty(t, orphanFeature[0].SampleID)

	// Sample without annotation survives with empty categorical fields.
	var orphanSample *Observation
	for i := range table.Rows {
		if table.Rows[i].SampleID == "LA3C" {
			orphanSample = &table.Rows[i]
		}
	}
	require.NotNil(t, orphanSample)
	assert.False(t, orphanSample.Annotated)
	assert.Empty(t, orphanSample.Genotype)
	assert.Equal(t, 2.0, orphanSample.Abundance)
}

func TestJoinCanonicalOrder(t *testing.T) {
	t.Parallel()

	v := testVariant()
	samples := []SampleAnnotation{
		{SampleID: "LA1C", Genotype: "WT", Condition: "Control"},
		{SampleID: "LA2C", Genotype: "Het", Condition: "Control"},
	}
	features := []FeatureAnnotation{
		{ComponentName: "SM(d18:1/16:0)"},
		{ComponentName: "PC(40:6)"},
	}
	// Deliberately scrambled emission order.
	abundances := []AbundanceMeasurement{
		{ComponentName: "PC(40:6)", SampleID: "LA2C", Abundance: 3.0},
		{ComponentName: "SM(d18:1/16:0)", SampleID: "LA2C", Abundance: 0.8},
		{ComponentName: "PC(40:6)", SampleID: "LA1C", Abundance: 1.0},
		{ComponentName: "SM(d18:1/16:0)", SampleID: "LA1C", Abundance: 0.5},
	}

	table := Join(features, abundances, samples, v)

	// Components keep feature order; samples follow the factor order.
	var got [][2]string
	for _, r := range table.Rows {
		got = append(got, [2]string{r.ComponentName, r.SampleID})
	}
	assert.Equal(t, [][2]string{
		{"SM(d18:1/16:0)", "LA1C"},
		{"SM(d18:1/16:0)", "LA2C"},
		{"PC(40:6)", "LA1C"},
		{"PC(40:6)", "LA2C"},
	}, got)
}

func TestValidateReportsOutOfDomainValues(t *testing.T) {
	t.Parallel()

	v := testVariant()
	samples := []SampleAnnotation{
		{SampleID: "LA1C", Genotype: "Mutant", Condition: "Control"},
		{SampleID: "ZZ9", Genotype: "WT", Condition: "Control"},
	}
	features := []FeatureAnnotation{{ComponentName: "PC(40:6)"}}
	abundances := []AbundanceMeasurement{
		{ComponentName: "PC(40:6)", SampleID: "LA1C", Abundance: 1.0},
		{ComponentName: "PC(40:6)", SampleID: "ZZ9", Abundance: 2.0},
	}

	table := Join(features, abundances, samples, v)

	// Rows survive; the violations are reported, not silently reordered.
	require.Equal(t, 2, table.Len())

	violations := table.Validate()
	domains := make(map[string]bool)
	for _, viol := range violations {
		domains[viol.Domain] = true
	}
	assert.True(t, domains["genotype"], "expected genotype violation, got %v", violations)
	assert.True(t, domains["sample_id"], "expected sample_id violation, got %v", violations)
	// The unlabeled composite surfaces as a group violation too.
	assert.True(t, domains["group"], "expected group violation, got %v", violations)

	assert.Error(t, table.MustValidate())
}

func TestValidateCleanTable(t *testing.T) {
	t.Parallel()

	v := testVariant()
	samples := []SampleAnnotation{{SampleID: "LA1C", Genotype: "WT", Condition: "Control", Sex: "F", Batch: "B1"}}
	features := []FeatureAnnotation{{ComponentName: "PC(40:6)"}}
	abundances := []AbundanceMeasurement{{ComponentName: "PC(40:6)", SampleID: "LA1C", Abundance: 1.0}}

	table := Join(features, abundances, samples, v)
	assert.Empty(t, table.Validate())
	assert.NoError(t, table.MustValidate())
}
