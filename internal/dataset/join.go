package dataset

import (
	"fmt"
	"sort"
)

// Join builds the tidy observation table: a left join of
// FeatureAnnotation to AbundanceMeasurement on component_name, then a
// left join of that result to SampleAnnotation on sample_id. Every row
// of the driving (feature/abundance) side survives: a feature with no
// measurements yields one row with a missing sample and abundance, and
// a measurement whose sample has no annotation keeps empty categorical
// fields with Annotated=false. Nothing is silently dropped.
//
// After joining, the variant's group composite is derived from genotype
// and condition and relabeled to its display value, and the table is
// sorted canonically by the domain set's factor orders.
func Join(features []FeatureAnnotation, abundances []AbundanceMeasurement, samples []SampleAnnotation, v Variant) *TidyTable {
	byComponent := make(map[string][]AbundanceMeasurement, len(features))
	for _, m := range abundances {
		byComponent[m.ComponentName] = append(byComponent[m.ComponentName], m)
	}

	bySample := make(map[string]SampleAnnotation, len(samples))
	for _, s := range samples {
		if _, dup := bySample[s.SampleID]; dup {
			continue // first annotation wins
		}
		bySample[s.SampleID] = s
	}

	t := &TidyTable{Domains: v.Domains()}
	for _, f := range features {
		ms := byComponent[f.ComponentName]
		if len(ms) == 0 {
			// Feature without any measurement still survives the join.
			t.Rows = append(t.Rows, Observation{
				ComponentName: f.ComponentName,
				Panel:         f.Panel,
				Abundance:     Missing(),
			})
			continue
		}
		for _, m := range ms {
			o := Observation{
				ComponentName: f.ComponentName,
				Panel:         f.Panel,
				SampleID:      m.SampleID,
				Abundance:     m.Abundance,
			}
			if s, ok := bySample[m.SampleID]; ok {
				o.Description = s.Description
				o.CellNumber = s.CellNumber
				o.Genotype = s.Genotype
				o.Condition = s.Condition
				o.Sex = s.Sex
				o.Batch = s.Batch
				o.Group = v.GroupLabel(s.Genotype, s.Condition)
				o.Annotated = true
			}
			t.Rows = append(t.Rows, o)
		}
	}

	t.SortCanonical()
	return t
}

// SortCanonical orders rows by component (factor order when the
// component domain is set, first-appearance order otherwise) and then
// by sample-ID factor order. The sort is stable so extraction order
// never leaks into ties.
func (t *TidyTable) SortCanonical() {
	componentRank := make(map[string]int)
	for i, c := range t.Components() {
		componentRank[c] = i
	}

	sampleLess := func(a, b string) bool { return a < b }
	if t.Domains != nil && t.Domains.SampleID != nil {
		sampleLess = t.Domains.SampleID.Less
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		ri, rj := t.Rows[i], t.Rows[j]
		if componentRank[ri.ComponentName] != componentRank[rj.ComponentName] {
			return componentRank[ri.ComponentName] < componentRank[rj.ComponentName]
		}
		return sampleLess(ri.SampleID, rj.SampleID)
	})
}

// Validate reports every categorical value present in the table but
// outside its enumerated domain. Such values keep their rows (their
// ordering is simply undefined); callers decide whether to fail. Rows
// without sample annotation are skipped: their categorical fields are
// missing, not invalid.
func (t *TidyTable) Validate() []DomainViolation {
	if t.Domains == nil {
		return nil
	}

	counts := make(map[DomainViolation]int)
	check := func(d *FactorDomain, value string) {
		if d == nil || value == "" || d.Contains(value) {
			return
		}
		counts[DomainViolation{Domain: d.Name, Value: value}]++
	}

	for _, r := range t.Rows {
		check(t.Domains.SampleID, r.SampleID)
		if !r.Annotated {
			continue
		}
		check(t.Domains.Genotype, r.Genotype)
		check(t.Domains.Condition, r.Condition)
		check(t.Domains.Sex, r.Sex)
		check(t.Domains.Batch, r.Batch)
		check(t.Domains.Group, r.Group)
	}

	violations := make([]DomainViolation, 0, len(counts))
	for v, n := range counts {
		v.Count = n
		violations = append(violations, v)
	}
	sortViolations(violations)
	return violations
}

// MustValidate is Validate with fail-fast semantics: any out-of-domain
// value is an error listing every violation.
func (t *TidyTable) MustValidate() error {
	violations := t.Validate()
	if len(violations) == 0 {
		return nil
	}
	msg := "categorical values outside enumerated domains:"
	for _, v := range violations {
		msg += "\n  " + v.String()
	}
	return fmt.Errorf("%s", msg)
}
