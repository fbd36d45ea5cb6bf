package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSignificant(t *testing.T) {
	t.Parallel()

	t.Run("thresholds are strict", func(t *testing.T) {
		t.Parallel()
		stats := []DifferentialStatistic{
			{ComponentName: "X", LogFC: 0.3, AdjPVal: 0.05},
			{ComponentName: "Y", LogFC: 0.1, AdjPVal: 0.01},
		}
		names, err := SelectSignificant(stats, 0.2, 0.1)
		require.NoError(t, err)
		assert.Equal(t, []string{"X"}, names)
	})

	t.Run("boundary values excluded", func(t *testing.T) {
		t.Parallel()
		stats := []DifferentialStatistic{
			{ComponentName: "AtFC", LogFC: 0.2, AdjPVal: 0.01},
			{ComponentName: "AtFDR", LogFC: 0.5, AdjPVal: 0.1},
		}
		_, err := SelectSignificant(stats, 0.2, 0.1)
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("descending fold change with name tiebreak", func(t *testing.T) {
		t.Parallel()
		stats := []DifferentialStatistic{
			{ComponentName: "down", LogFC: -1.5, AdjPVal: 0.001},
			{ComponentName: "b", LogFC: 0.8, AdjPVal: 0.001},
			{ComponentName: "a", LogFC: 0.8, AdjPVal: 0.001},
			{ComponentName: "top", LogFC: 2.0, AdjPVal: 0.001},
		}
		names, err := SelectSignificant(stats, 0.2, 0.1)
		require.NoError(t, err)
		assert.Equal(t, []string{"top", "a", "b", "down"}, names)
	})

	t.Run("negative fold change passes on magnitude", func(t *testing.T) {
		t.Parallel()
		stats := []DifferentialStatistic{{ComponentName: "down", LogFC: -0.9, AdjPVal: 0.001}}
		names, err := SelectSignificant(stats, 0.2, 0.1)
		require.NoError(t, err)
		assert.Equal(t, []string{"down"}, names)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := SelectSignificant(nil, 0.2, 0.1)
		assert.ErrorIs(t, err, ErrEmptyResult)
	})
}

func scenarioTable(v Variant, components ...string) *TidyTable {
	samples := []SampleAnnotation{
		{SampleID: "LA1C", Genotype: "WT", Condition: "Control"},
		{SampleID: "LA2C", Genotype: "Het", Condition: "Control"},
	}
	var features []FeatureAnnotation
	var abundances []AbundanceMeasurement
	for i, c := range components {
		features = append(features, FeatureAnnotation{ComponentName: c})
		abundances = append(abundances,
			AbundanceMeasurement{ComponentName: c, SampleID: "LA1C", Abundance: float64(i) + 1.0},
			AbundanceMeasurement{ComponentName: c, SampleID: "LA2C", Abundance: float64(i) + 3.0},
		)
	}
	return Join(features, abundances, samples, v)
}

func TestApplySignificance(t *testing.T) {
	t.Parallel()

	t.Run("semi-join keeps observation columns only", func(t *testing.T) {
		t.Parallel()
		table := scenarioTable(testVariant(), "X", "Y", "Z")
		stats := []DifferentialStatistic{
			{ComponentName: "X", LogFC: 0.3, AdjPVal: 0.05},
			{ComponentName: "Y", LogFC: 0.1, AdjPVal: 0.01},
			{ComponentName: "Z", LogFC: 1.2, AdjPVal: 0.02},
		}
		require.NoError(t, table.ApplySignificance(stats, 0.2, 0.1, false))

		assert.Equal(t, []string{"X", "Z"}, table.Components())
		assert.Equal(t, 4, table.Len())
	})

	t.Run("relevel reorders by fold change rank", func(t *testing.T) {
		t.Parallel()
		table := scenarioTable(testVariant(), "X", "Y", "Z")
		stats := []DifferentialStatistic{
			{ComponentName: "X", LogFC: 0.3, AdjPVal: 0.05},
			{ComponentName: "Y", LogFC: 0.1, AdjPVal: 0.01},
			{ComponentName: "Z", LogFC: 1.2, AdjPVal: 0.02},
		}
		require.NoError(t, table.ApplySignificance(stats, 0.2, 0.1, true))

		require.NotNil(t, table.Domains.Component)
		assert.Equal(t, []string{"Z", "X"}, table.Components())
		assert.Equal(t, "Z", table.Rows[0].ComponentName)
		assert.Equal(t, "LA1C", table.Rows[0].SampleID)
	})

	t.Run("unknown statistics key is fatal", func(t *testing.T) {
		t.Parallel()
		table := scenarioTable(testVariant(), "X")
		stats := []DifferentialStatistic{
			{ComponentName: "X", LogFC: 0.3, AdjPVal: 0.05},
			{ComponentName: "Ghost", LogFC: 2.0, AdjPVal: 0.001},
		}
		err := table.ApplySignificance(stats, 0.2, 0.1, false)
		var unknown *UnknownAnalyteError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Ghost", unknown.ComponentName)
		// Precondition failure leaves the table untouched.
		assert.Equal(t, 2, table.Len())
	})

	t.Run("no survivors surfaces empty result", func(t *testing.T) {
		t.Parallel()
		table := scenarioTable(testVariant(), "X")
		stats := []DifferentialStatistic{{ComponentName: "X", LogFC: 0.05, AdjPVal: 0.9}}
		err := table.ApplySignificance(stats, 0.2, 0.1, false)
		assert.ErrorIs(t, err, ErrEmptyResult)
	})
}

func TestRecenter(t *testing.T) {
	t.Parallel()

	t.Run("reference median becomes zero", func(t *testing.T) {
		t.Parallel()
		v := testVariant()
		samples := []SampleAnnotation{
			{SampleID: "LA1C", Genotype: "WT", Condition: "Control"},
			{SampleID: "LA2C", Genotype: "WT", Condition: "Control"},
			{SampleID: "LA3C", Genotype: "Het", Condition: "Control"},
		}
		features := []FeatureAnnotation{{ComponentName: "X"}}
		abundances := []AbundanceMeasurement{
			{ComponentName: "X", SampleID: "LA1C", Abundance: 2.0},
			{ComponentName: "X", SampleID: "LA2C", Abundance: 4.0},
			{ComponentName: "X", SampleID: "LA3C", Abundance: 10.0},
		}
		table := Join(features, abundances, samples, v)

		table.Recenter("WT control")

		got := make(map[string]float64)
		for _, r := range table.Rows {
			got[r.SampleID] = r.Abundance
		}
		assert.Equal(t, -1.0, got["LA1C"])
		assert.Equal(t, 1.0, got["LA2C"])
		assert.Equal(t, 7.0, got["LA3C"])
	})

	t.Run("analyte without reference observations goes missing", func(t *testing.T) {
		t.Parallel()
		v := testVariant()
		samples := []SampleAnnotation{{SampleID: "LA2C", Genotype: "Het", Condition: "Control"}}
		features := []FeatureAnnotation{{ComponentName: "X"}}
		abundances := []AbundanceMeasurement{{ComponentName: "X", SampleID: "LA2C", Abundance: 5.0}}
		table := Join(features, abundances, samples, v)

		table.Recenter("WT control")

		require.Equal(t, 1, table.Len())
		assert.True(t, IsMissing(table.Rows[0].Abundance))
	})

	t.Run("missing values ignored when computing the center", func(t *testing.T) {
		t.Parallel()
		v := testVariant()
		samples := []SampleAnnotation{
			{SampleID: "LA1C", Genotype: "WT", Condition: "Control"},
			{SampleID: "LA2C", Genotype: "WT", Condition: "Control"},
		}
		features := []FeatureAnnotation{{ComponentName: "X"}}
		abundances := []AbundanceMeasurement{
			{ComponentName: "X", SampleID: "LA1C", Abundance: 3.0},
			{ComponentName: "X", SampleID: "LA2C", Abundance: Missing()},
		}
		table := Join(features, abundances, samples, v)

		table.Recenter("WT control")

		got := make(map[string]float64)
		for _, r := range table.Rows {
			got[r.SampleID] = r.Abundance
		}
		assert.Equal(t, 0.0, got["LA1C"])
		assert.True(t, IsMissing(got["LA2C"]))
	})
}

func TestMedian(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3.0, median([]float64{3}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
}
