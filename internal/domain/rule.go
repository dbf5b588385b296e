package domain

import "strings"

// ScopeKind discriminates the insurer-scope variants of a rule.
type ScopeKind string

const (
	// ScopeAllCompanies applies the rule to every insurer.
	ScopeAllCompanies ScopeKind = "ALL"

	// ScopeExplicitList applies the rule only to the listed insurers.
	ScopeExplicitList ScopeKind = "LIST"

	// ScopeRestOfCompanies applies the rule to every insurer not
	// explicitly claimed by a sibling rule with the same LOB and segment.
	ScopeRestOfCompanies ScopeKind = "REST"
)

// InsurerScope declares which insurers a rule applies to.
// Companies holds normalized insurer names and is only set for LIST scopes.
type InsurerScope struct {
	Kind      ScopeKind `json:"kind" yaml:"kind"`
	Companies []string  `json:"companies,omitempty" yaml:"companies,omitempty"`
}

// FormulaKind discriminates the payout formula variants.
type FormulaKind string

const (
	FormulaPercentOf    FormulaKind = "percent_of"
	FormulaSubtractFlat FormulaKind = "subtract_flat"
	FormulaIdentity     FormulaKind = "identity"
)

// Formula is a payout computation over the payin value.
// Display carries the human-readable description exactly as written in
// the table spec; it is what output records and histograms report.
type Formula struct {
	Kind    FormulaKind `json:"kind" yaml:"kind"`
	Factor  float64     `json:"factor,omitempty" yaml:"factor,omitempty"`
	Points  float64     `json:"points,omitempty" yaml:"points,omitempty"`
	Display string      `json:"display" yaml:"display"`
}

// Apply computes the payout for a payin value, clamped at zero.
func (f Formula) Apply(payin float64) float64 {
	var out float64
	switch f.Kind {
	case FormulaPercentOf:
		out = payin * f.Factor
	case FormulaSubtractFlat:
		out = payin - f.Points
	default:
		out = payin
	}
	if out < 0 {
		return 0
	}
	return out
}

// RemarksNil marks a rule as having no remarks condition.
const RemarksNil = "NIL"

// RuleEntry is one row of a compiled decision table. Tables are ordered
// sequences of entries; evaluation is first-match-wins, so entry order is
// part of the table's contract.
type RuleEntry struct {
	LOB     LOB          `json:"lob"`
	Segment string       `json:"segment"`
	Scope   InsurerScope `json:"scope"`
	Formula Formula      `json:"formula"`

	// Remarks is the rule's condition: RemarksNil or empty for
	// unconditional, a bracket label for bracket-gated rules, anything
	// else is informational and matches unconditionally.
	Remarks string `json:"remarks"`

	// Guard is an optional CEL expression compiled at table load.
	// A rule with a guard only matches when the guard evaluates true.
	Guard string `json:"guard,omitempty"`
}

// Unconditional reports whether the rule carries no remarks condition.
func (r *RuleEntry) Unconditional() bool {
	remarks := strings.TrimSpace(r.Remarks)
	return remarks == "" || strings.EqualFold(remarks, RemarksNil)
}

// TableSpec is the external, ordered definition of a decision table,
// loadable from YAML or JSON and persistable as-is.
type TableSpec struct {
	Name    string     `json:"name" yaml:"name"`
	Version string     `json:"version" yaml:"version"`
	Rules   []RuleSpec `json:"rules" yaml:"rules"`
}

// RuleSpec is one uncompiled table row. Insurers is "ALL", "REST", or a
// comma-separated insurer list; Formula is a human-readable formula
// string ("90% of Payin", "-3", "Less 2% of Payin", "Payin").
type RuleSpec struct {
	LOB      string `json:"lob" yaml:"lob"`
	Segment  string `json:"segment" yaml:"segment"`
	Insurers string `json:"insurers" yaml:"insurers"`
	Formula  string `json:"formula" yaml:"formula"`
	Remarks  string `json:"remarks" yaml:"remarks"`
	Guard    string `json:"guard,omitempty" yaml:"guard,omitempty"`
}
