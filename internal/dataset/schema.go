package dataset

import (
	"fmt"
	"sort"
)

// FactorDomain is an explicitly enumerated, ordered set of valid values
// for a categorical column. Display order is the level order, never
// inferred from data. Values outside the domain are representationally
// valid on a row but have undefined rank: they sort after every
// in-domain level and are reported by Validate.
type FactorDomain struct {
	Name   string
	Levels []string

	rank map[string]int
}

// NewFactorDomain builds a domain with the given level order.
func NewFactorDomain(name string, levels ...string) *FactorDomain {
	rank := make(map[string]int, len(levels))
	for i, l := range levels {
		if _, dup := rank[l]; dup {
			panic(fmt.Sprintf("factor domain %s: duplicate level %q", name, l))
		}
		rank[l] = i
	}
	return &FactorDomain{Name: name, Levels: levels, rank: rank}
}

// Rank returns the order of v within the domain and whether v is a
// member.
func (d *FactorDomain) Rank(v string) (int, bool) {
	r, ok := d.rank[v]
	return r, ok
}

// Contains reports whether v is an enumerated level.
func (d *FactorDomain) Contains(v string) bool {
	_, ok := d.rank[v]
	return ok
}

// Less orders two values by level order. Out-of-domain values sort
// after all in-domain levels, tie-broken lexically so the order is
// still deterministic.
func (d *FactorDomain) Less(a, b string) bool {
	ra, aok := d.Rank(a)
	rb, bok := d.Rank(b)
	switch {
	case aok && bok:
		return ra < rb
	case aok:
		return true
	case bok:
		return false
	default:
		return a < b
	}
}

// Relevel replaces the level order wholesale, keeping the domain name.
// Used by the significance filter to impose fold-change rank order on
// the component factor.
func (d *FactorDomain) Relevel(levels []string) *FactorDomain {
	return NewFactorDomain(d.Name, levels...)
}

// DomainSet carries every categorical domain the normalizer applies to
// a tidy table. It is an explicit schema object passed into the join,
// not recomputed at call sites.
type DomainSet struct {
	SampleID  *FactorDomain
	Genotype  *FactorDomain
	Condition *FactorDomain
	Sex       *FactorDomain
	Batch     *FactorDomain
	Group     *FactorDomain

	// Component is nil until the significance filter re-levels rows by
	// fold-change rank; before that, component order is the
	// feature-annotation order of first appearance.
	Component *FactorDomain
}

// DomainViolation records one out-of-domain value found by Validate.
type DomainViolation struct {
	Domain string
	Value  string
	Count  int
}

func (v DomainViolation) String() string {
	return fmt.Sprintf("%s: value %q outside enumerated domain (%d rows)", v.Domain, v.Value, v.Count)
}

// sortViolations gives Validate deterministic output.
func sortViolations(vs []DomainViolation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Domain != vs[j].Domain {
			return vs[i].Domain < vs[j].Domain
		}
		return vs[i].Value < vs[j].Value
	})
}
