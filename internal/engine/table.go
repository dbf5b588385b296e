package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// Table is a compiled, immutable decision table. Rules keep the order of
// the source spec; evaluation is first-match-wins, so that order is part
// of the table's contract.
type Table struct {
	Name    string
	Version string
	Rules   []*compiledRule

	exclusions exclusionIndex
}

// compiledRule is one table row with its derived match data precomputed.
type compiledRule struct {
	Entry *domain.RuleEntry

	// bracketCond is set when the remarks condition is a recognized
	// payin-bracket label; such rules only match records in that bracket.
	bracketCond  domain.PayinBracket
	hasBracket   bool
	catchAll     bool
	guardProgram cel.Program
}

// RuleCount returns the number of compiled rules.
func (t *Table) RuleCount() int {
	return len(t.Rules)
}

// Entries returns the rule entries in table order.
func (t *Table) Entries() []*domain.RuleEntry {
	entries := make([]*domain.RuleEntry, len(t.Rules))
	for i, r := range t.Rules {
		entries[i] = r.Entry
	}
	return entries
}

// Compile turns an ordered table spec into an evaluatable table. Every
// rule is validated: the LOB must be known, the segment non-empty, the
// formula parseable, and any guard must compile. Violations abort the
// load; a half-compiled table is never returned.
func Compile(spec *domain.TableSpec, env *cel.Env) (*Table, error) {
	if spec == nil || len(spec.Rules) == 0 {
		return nil, fmt.Errorf("%w: table spec has no rules", domain.ErrTableLoad)
	}

	rules := make([]*compiledRule, 0, len(spec.Rules))
	for i, rs := range spec.Rules {
		lob, ok := domain.ParseLOB(rs.LOB)
		if !ok {
			return nil, fmt.Errorf("%w: rule %d: %w: unknown lob %q", domain.ErrTableLoad, i, domain.ErrInvalidRule, rs.LOB)
		}
		if strings.TrimSpace(rs.Segment) == "" {
			return nil, fmt.Errorf("%w: rule %d: %w: segment is required", domain.ErrTableLoad, i, domain.ErrInvalidRule)
		}

		formula, err := ParseFormula(rs.Formula)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", domain.ErrTableLoad, i, err)
		}

		entry := &domain.RuleEntry{
			LOB:     lob,
			Segment: strings.TrimSpace(rs.Segment),
			Scope:   parseScope(rs.Insurers),
			Formula: formula,
			Remarks: strings.TrimSpace(rs.Remarks),
			Guard:   strings.TrimSpace(rs.Guard),
		}

		compiled := &compiledRule{Entry: entry}
		if !entry.Unconditional() {
			if bracket, ok := domain.ParseBracket(entry.Remarks); ok {
				compiled.bracketCond = bracket
				compiled.hasBracket = true
			} else {
				// Free-text conditions are informational: the rule
				// matches unconditionally and the text travels into
				// the explanation.
				compiled.catchAll = true
			}
		}
		if entry.Guard != "" {
			program, err := compileGuard(env, entry.Guard)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %d: %w", domain.ErrTableLoad, i, err)
			}
			compiled.guardProgram = program
		}

		rules = append(rules, compiled)
	}

	return &Table{
		Name:       spec.Name,
		Version:    spec.Version,
		Rules:      rules,
		exclusions: buildExclusionIndex(entriesOf(rules)),
	}, nil
}

func entriesOf(rules []*compiledRule) []*domain.RuleEntry {
	entries := make([]*domain.RuleEntry, len(rules))
	for i, r := range rules {
		entries[i] = r.Entry
	}
	return entries
}

// parseScope resolves a spec's insurers field: "ALL", "REST", or a
// comma-separated list of insurer names.
func parseScope(insurers string) domain.InsurerScope {
	trimmed := strings.TrimSpace(insurers)
	upper := strings.ToUpper(trimmed)

	switch {
	case trimmed == "" || upper == "ALL" || upper == "ALL COMPANIES":
		return domain.InsurerScope{Kind: domain.ScopeAllCompanies}
	case upper == "REST" || upper == "REST OF COMPANIES":
		return domain.InsurerScope{Kind: domain.ScopeRestOfCompanies}
	}

	var companies []string
	for _, part := range strings.Split(trimmed, ",") {
		if name := strings.TrimSpace(part); name != "" {
			companies = append(companies, name)
		}
	}
	return domain.InsurerScope{Kind: domain.ScopeExplicitList, Companies: companies}
}

// LoadSpecFile reads a table spec from a YAML or JSON file. The format
// is chosen by extension; anything that is not .json parses as YAML,
// which also accepts JSON input.
func LoadSpecFile(path string) (*domain.TableSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTableLoad, err)
	}

	var spec domain.TableSpec
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrTableLoad, path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrTableLoad, path, err)
		}
	}

	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &spec, nil
}

// ParseSpec reads a table spec from raw YAML or JSON bytes, as uploaded
// through the table management API.
func ParseSpec(data []byte) (*domain.TableSpec, error) {
	var spec domain.TableSpec
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTableLoad, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTableLoad, err)
		}
	}
	return &spec, nil
}
