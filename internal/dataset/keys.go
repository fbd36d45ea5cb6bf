package dataset

import (
	"fmt"
	"strings"
)

// KeyRule declares how a composite sample label encodes the true sample
// ID: the label is split on Delimiter and the Segment-th piece (zero
// based) is the ID. A zero-value rule means the label is already the ID.
//
// The rule is validated at the ingestion boundary: a label that does not
// contain the declared segment is a MalformedKeyError, not a best-effort
// parse.
type KeyRule struct {
	Delimiter string `json:"delimiter"`
	Segment   int    `json:"segment"`
}

// MalformedKeyError reports a sample label that does not match the
// declared key rule.
type MalformedKeyError struct {
	Label string
	Rule  KeyRule
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("sample label %q does not contain segment %d when split on %q",
		e.Label, e.Rule.Segment, e.Rule.Delimiter)
}

// Parse extracts the sample ID from a composite label.
func (r KeyRule) Parse(label string) (string, error) {
	if r.Delimiter == "" {
		if label == "" {
			return "", &MalformedKeyError{Label: label, Rule: r}
		}
		return label, nil
	}

	parts := strings.Split(label, r.Delimiter)
	if r.Segment >= len(parts) || parts[r.Segment] == "" {
		return "", &MalformedKeyError{Label: label, Rule: r}
	}
	return parts[r.Segment], nil
}
