package dataset

import (
	"fmt"
	"math"
	"sort"
)

// UnknownAnalyteError reports a statistics key with no corresponding
// component in the observation table. The precondition is asserted
// before any filtering happens and is fatal.
type UnknownAnalyteError struct {
	ComponentName string
}

func (e *UnknownAnalyteError) Error() string {
	return fmt.Sprintf("statistics component %q not present in observation table", e.ComponentName)
}

// SelectSignificant filters the statistics table to analytes with
// |logFC| > fcThreshold and adj.P.Val < fdrThreshold, ordered by
// descending logFC. Ties are broken by component name so the order is
// deterministic. Zero survivors is an ErrEmptyResult.
func SelectSignificant(stats []DifferentialStatistic, fcThreshold, fdrThreshold float64) ([]string, error) {
	selected := make([]DifferentialStatistic, 0, len(stats))
	for _, s := range stats {
		if math.Abs(s.LogFC) > fcThreshold && s.AdjPVal < fdrThreshold {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("thresholds fc=%g fdr=%g: %w", fcThreshold, fdrThreshold, ErrEmptyResult)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].LogFC != selected[j].LogFC {
			return selected[i].LogFC > selected[j].LogFC
		}
		return selected[i].ComponentName < selected[j].ComponentName
	})

	names := make([]string, len(selected))
	for i, s := range selected {
		names[i] = s.ComponentName
	}
	return names, nil
}

// ApplySignificance restricts the table to analytes passing the
// thresholds (a semi-join against the statistics table: no statistics
// columns are merged in). Every statistics key must already exist in
// the table's component domain; a violation is fatal. When relevel is
// true the component factor is re-leveled to fold-change rank order and
// the table re-sorted, so consumers that suppress re-clustering see
// rows in that exact order.
func (t *TidyTable) ApplySignificance(stats []DifferentialStatistic, fcThreshold, fdrThreshold float64, relevel bool) error {
	present := make(map[string]bool)
	for _, r := range t.Rows {
		present[r.ComponentName] = true
	}
	for _, s := range stats {
		if !present[s.ComponentName] {
			return &UnknownAnalyteError{ComponentName: s.ComponentName}
		}
	}

	selected, err := SelectSignificant(stats, fcThreshold, fdrThreshold)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(selected))
	for _, name := range selected {
		keep[name] = true
	}

	filtered := t.Rows[:0]
	for _, r := range t.Rows {
		if keep[r.ComponentName] {
			filtered = append(filtered, r)
		}
	}
	t.Rows = filtered

	if relevel {
		component := NewFactorDomain("component_name", selected...)
		if t.Domains == nil {
			t.Domains = &DomainSet{}
		}
		t.Domains.Component = component
		t.SortCanonical()
	}

	return nil
}

// Recenter subtracts, per analyte, the median abundance of the
// designated reference group from every abundance of that analyte. An
// analyte with zero observed values in the reference group has an
// undefined center: all its abundances become missing rather than
// erroring.
func (t *TidyTable) Recenter(referenceGroup string) {
	refValues := make(map[string][]float64)
	for _, r := range t.Rows {
		if r.Group == referenceGroup && !IsMissing(r.Abundance) {
			refValues[r.ComponentName] = append(refValues[r.ComponentName], r.Abundance)
		}
	}

	centers := make(map[string]float64, len(refValues))
	for name, xs := range refValues {
		centers[name] = median(xs)
	}

	for i := range t.Rows {
		center, ok := centers[t.Rows[i].ComponentName]
		if !ok {
			t.Rows[i].Abundance = Missing()
			continue
		}
		t.Rows[i].Abundance -= center
	}
}

// median of a non-empty slice; the middle two values are averaged for
// even counts.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
