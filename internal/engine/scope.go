package engine

import (
	"strings"

	"github.com/opensource-finance/gridpay/internal/classify"
	"github.com/opensource-finance/gridpay/internal/domain"
)

// groupKey identifies the sibling group a rule belongs to: every rule
// sharing the same LOB and segment pattern competes for the same records,
// so "rest of companies" membership is computed within this group.
type groupKey struct {
	lob     domain.LOB
	segment string
}

func groupFor(rule *domain.RuleEntry) groupKey {
	return groupKey{lob: rule.LOB, segment: strings.ToUpper(strings.TrimSpace(rule.Segment))}
}

// exclusionIndex maps each sibling group to the set of companies claimed
// by its explicit-list rules. Built once at table compile time so
// rest-of-companies matching never rescans the table per record.
type exclusionIndex map[groupKey]map[string]struct{}

func buildExclusionIndex(rules []*domain.RuleEntry) exclusionIndex {
	idx := make(exclusionIndex)
	for _, rule := range rules {
		if rule.Scope.Kind != domain.ScopeExplicitList {
			continue
		}
		key := groupFor(rule)
		set, ok := idx[key]
		if !ok {
			set = make(map[string]struct{})
			idx[key] = set
		}
		for _, name := range rule.Scope.Companies {
			set[classify.Company(name)] = struct{}{}
		}
	}
	return idx
}

// claimed reports whether a normalized company name is explicitly listed
// by any rule in the group. Substring containment runs both directions
// so partial names ("ICICI" vs "ICICI Lombard") still count as claimed.
func (idx exclusionIndex) claimed(key groupKey, company string) bool {
	for listed := range idx[key] {
		if companiesOverlap(company, listed) {
			return true
		}
	}
	return false
}

// scopeMatches decides whether a rule applies to the requesting company.
// The company name must already be normalized via classify.Company.
func scopeMatches(rule *domain.RuleEntry, company string, idx exclusionIndex) bool {
	switch rule.Scope.Kind {
	case domain.ScopeAllCompanies:
		return true
	case domain.ScopeExplicitList:
		for _, listed := range rule.Scope.Companies {
			if companiesOverlap(company, classify.Company(listed)) {
				return true
			}
		}
		return false
	case domain.ScopeRestOfCompanies:
		return !idx.claimed(groupFor(rule), company)
	default:
		return false
	}
}

// companiesOverlap tolerates partial insurer names by matching substrings
// in both directions.
func companiesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
