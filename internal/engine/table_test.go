package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opensource-finance/gridpay/internal/domain"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name      string
		insurers  string
		kind      domain.ScopeKind
		companies int
	}{
		{"all keyword", "ALL", domain.ScopeAllCompanies, 0},
		{"all lowercase", "all", domain.ScopeAllCompanies, 0},
		{"empty defaults to all", "", domain.ScopeAllCompanies, 0},
		{"rest keyword", "REST", domain.ScopeRestOfCompanies, 0},
		{"rest of companies", "Rest of Companies", domain.ScopeRestOfCompanies, 0},
		{"single insurer", "Reliance", domain.ScopeExplicitList, 1},
		{"comma list", "Bajaj, Digit, ICICI", domain.ScopeExplicitList, 3},
		{"list with empty parts", "Bajaj, , Digit,", domain.ScopeExplicitList, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := parseScope(tt.insurers)
			if scope.Kind != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, scope.Kind)
			}
			if len(scope.Companies) != tt.companies {
				t.Errorf("expected %d companies, got %d", tt.companies, len(scope.Companies))
			}
		})
	}
}

func TestCompileRejectsBadRules(t *testing.T) {
	env, err := newGuardEnv()
	if err != nil {
		t.Fatalf("failed to create env: %v", err)
	}

	tests := []struct {
		name string
		rule domain.RuleSpec
	}{
		{"unknown lob", domain.RuleSpec{LOB: "BOAT", Segment: "X", Insurers: "ALL", Formula: "-2%"}},
		{"empty segment", domain.RuleSpec{LOB: "TW", Segment: "  ", Insurers: "ALL", Formula: "-2%"}},
		{"bad formula", domain.RuleSpec{LOB: "TW", Segment: "TW TP", Insurers: "ALL", Formula: "half of payin"}},
		{"bad guard", domain.RuleSpec{LOB: "TW", Segment: "TW TP", Insurers: "ALL", Formula: "-2%", Guard: "not valid cel !!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &domain.TableSpec{Name: "bad", Rules: []domain.RuleSpec{tt.rule}}
			if _, err := Compile(spec, env); err == nil {
				t.Error("expected compile error")
			}
		})
	}

	t.Run("empty spec", func(t *testing.T) {
		if _, err := Compile(&domain.TableSpec{Name: "empty"}, env); err == nil {
			t.Error("expected error for spec with no rules")
		}
	})
}

func TestExclusionIndexClaims(t *testing.T) {
	env, err := newGuardEnv()
	if err != nil {
		t.Fatalf("failed to create env: %v", err)
	}

	spec := &domain.TableSpec{
		Name: "exclusion",
		Rules: []domain.RuleSpec{
			{LOB: "TW", Segment: "TW TP", Insurers: "Bajaj, Digit", Formula: "-3%"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-2%"},
			// Different segment group: its list must not leak into TW TP.
			{LOB: "TW", Segment: "1+5", Insurers: "ICICI", Formula: "90% of Payin"},
		},
	}
	table, err := Compile(spec, env)
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}

	rest := table.Rules[1].Entry
	if scopeMatches(rest, "BAJAJ", table.exclusions) {
		t.Error("Bajaj is claimed by a sibling list and must not match REST")
	}
	if !scopeMatches(rest, "HDFC", table.exclusions) {
		t.Error("HDFC is unclaimed and must match REST")
	}
	if !scopeMatches(rest, "ICICI", table.exclusions) {
		t.Error("ICICI is only claimed in another segment group and must match REST here")
	}
}

func TestLoadSpecFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.yaml")
	content := `name: test-grid
version: "1"
rules:
  - lob: TAXI
    segment: TAXI
    insurers: ALL
    formula: "-2%"
    remarks: NIL
  - lob: BUS
    segment: STAFF BUS
    insurers: ALL
    formula: 88% of Payin
    remarks: NIL
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write spec file: %v", err)
	}

	spec, err := LoadSpecFile(path)
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}
	if spec.Name != "test-grid" {
		t.Errorf("expected name test-grid, got %q", spec.Name)
	}
	if len(spec.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(spec.Rules))
	}
	if spec.Rules[1].Formula != "88% of Payin" {
		t.Errorf("expected second formula preserved, got %q", spec.Rules[1].Formula)
	}
}

func TestLoadSpecFileMissing(t *testing.T) {
	if _, err := LoadSpecFile("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseSpecJSON(t *testing.T) {
	data := []byte(`{"name":"j","rules":[{"lob":"TW","segment":"TW TP","insurers":"ALL","formula":"-2%","remarks":"NIL"}]}`)
	spec, err := ParseSpec(data)
	if err != nil {
		t.Fatalf("failed to parse JSON spec: %v", err)
	}
	if len(spec.Rules) != 1 || spec.Rules[0].Segment != "TW TP" {
		t.Errorf("unexpected spec: %+v", spec)
	}
}
