package engine

import (
	"testing"

	"github.com/opensource-finance/gridpay/internal/classify"
	"github.com/opensource-finance/gridpay/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := eng.LoadSpec(BuiltinSpec()); err != nil {
		t.Fatalf("failed to load builtin spec: %v", err)
	}
	return eng
}

func record(segment, payin string) *domain.PolicyRecord {
	value, bracket := classify.Payin(payin)
	return &domain.PolicyRecord{
		Segment:       segment,
		PayinRaw:      payin,
		PayinValue:    value,
		PayinCategory: bracket,
	}
}

func TestEngineNoTableLoaded(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if eng.Snapshot() != nil {
		t.Error("expected nil snapshot before any table is loaded")
	}
	if eng.RuleCount() != 0 {
		t.Errorf("expected 0 rules, got %d", eng.RuleCount())
	}
}

func TestBuiltinSpecCompiles(t *testing.T) {
	eng := newTestEngine(t)
	if eng.RuleCount() != 22 {
		t.Errorf("expected 22 builtin rules, got %d", eng.RuleCount())
	}
}

func TestEvaluateTWTPExplicitInsurer(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	rec := record("TW TP", "55%")
	result := table.Evaluate(rec, domain.LOBTW, "Bajaj", nil)

	if result.Rule == nil {
		t.Fatalf("expected a match, got none: %s", result.Explanation)
	}
	if result.Rule.Formula.Display != "-3%" {
		t.Errorf("expected formula -3%%, got %q", result.Rule.Formula.Display)
	}
	if got := result.Rule.Formula.Apply(rec.PayinValue); got != 52 {
		t.Errorf("expected payout 52, got %.2f", got)
	}
}

func TestEvaluateTWTPRestOfCompanies(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	tests := []struct {
		name    string
		payin   string
		formula string
	}{
		{"below 20 bracket", "15", "-2%"},
		{"21 to 30 bracket", "25", "-3%"},
		{"31 to 50 bracket", "45", "-4%"},
		{"above 50 bracket", "60", "-5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := table.Evaluate(record("TW TP", tt.payin), domain.LOBTW, "HDFC Ergo", nil)
			if result.Rule == nil {
				t.Fatalf("expected a match, got none: %s", result.Explanation)
			}
			if result.Rule.Formula.Display != tt.formula {
				t.Errorf("expected formula %q, got %q", tt.formula, result.Rule.Formula.Display)
			}
		})
	}
}

// A company claimed by an explicit-list rule must never fall through to
// a rest-of-companies sibling in the same (lob, segment) group.
func TestRestOfCompaniesExclusivity(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	for _, company := range []string{"Bajaj", "Digit", "ICICI", "ICICI Lombard", "Bajaj Allianz General Insurance"} {
		// Payin 15 would select the REST "-2%" rule if the exclusion
		// failed; the explicit rule carries "-3%".
		result := table.Evaluate(record("TW TP", "15"), domain.LOBTW, company, nil)
		if result.Rule == nil {
			t.Fatalf("%s: expected a match, got none", company)
		}
		if result.Rule.Scope.Kind != domain.ScopeExplicitList {
			t.Errorf("%s: matched %v scope, want explicit list", company, result.Rule.Scope.Kind)
		}
		if result.Rule.Formula.Display != "-3%" {
			t.Errorf("%s: expected formula -3%%, got %q", company, result.Rule.Formula.Display)
		}
	}
}

func TestFirstMatchPriorityIsOrderDependent(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	spec := &domain.TableSpec{
		Name: "priority",
		Rules: []domain.RuleSpec{
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "90% of Payin", Remarks: "NIL"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "88% of Payin", Remarks: "NIL"},
		},
	}
	if err := eng.LoadSpec(spec); err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}

	result := eng.Snapshot().Evaluate(record("TAXI", "40"), domain.LOBTaxi, "Acme", nil)
	if result.Rule == nil || result.Rule.Formula.Display != "90% of Payin" {
		t.Fatalf("expected the earlier rule to win, got %+v", result.Rule)
	}

	// Reversing the table changes the outcome: order is load-bearing.
	spec.Rules[0], spec.Rules[1] = spec.Rules[1], spec.Rules[0]
	if err := eng.LoadSpec(spec); err != nil {
		t.Fatalf("failed to reload spec: %v", err)
	}
	result = eng.Snapshot().Evaluate(record("TAXI", "40"), domain.LOBTaxi, "Acme", nil)
	if result.Rule == nil || result.Rule.Formula.Display != "88% of Payin" {
		t.Fatalf("expected the reordered first rule to win, got %+v", result.Rule)
	}
}

func TestEvaluateCVTonnageSegments(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	t.Run("upto 2.5 explicit insurer", func(t *testing.T) {
		rec := record("CV upto 2.5 Tn", "15%")
		result := table.Evaluate(rec, domain.LOBCV, "Reliance", nil)
		if result.Rule == nil {
			t.Fatalf("expected a match, got none: %s", result.Explanation)
		}
		if result.Rule.Segment != "Upto 2.5 GVW" {
			t.Errorf("expected segment 'Upto 2.5 GVW', got %q", result.Rule.Segment)
		}
		if got := result.Rule.Formula.Apply(rec.PayinValue); got != 13 {
			t.Errorf("expected payout 13, got %.2f", got)
		}
	})

	t.Run("upto 2.5 rest of companies", func(t *testing.T) {
		result := table.Evaluate(record("CV 2.5 GVW", "15%"), domain.LOBCV, "Tata AIG", nil)
		if result.Rule == nil || result.Rule.Formula.Display != "-3%" {
			t.Fatalf("expected the REST rule (-3%%), got %+v", result.Rule)
		}
	})

	t.Run("other tonnage collapses to default bucket", func(t *testing.T) {
		result := table.Evaluate(record("CV 12 GVW", "35%"), domain.LOBCV, "Reliance", nil)
		if result.Rule == nil {
			t.Fatal("expected a match, got none")
		}
		if result.Rule.Segment != "All GVW & PCV 3W, GCV 3W" {
			t.Errorf("expected default CV bucket, got %q", result.Rule.Segment)
		}
		if result.Rule.Formula.Display != "-4%" {
			t.Errorf("expected -4%% for the 31-50 bracket, got %q", result.Rule.Formula.Display)
		}
	})
}

func TestEvaluateBusDefaultsToStaff(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	rec := record("BUS", "40%")
	result := table.Evaluate(rec, domain.LOBBus, "Acme", nil)
	if result.Rule == nil {
		t.Fatalf("expected a match, got none: %s", result.Explanation)
	}
	if result.Rule.Segment != "STAFF BUS" {
		t.Errorf("expected STAFF BUS default, got %q", result.Rule.Segment)
	}
	if got := domain.FormatPayout(result.Rule.Formula.Apply(rec.PayinValue)); got != "35.20%" {
		t.Errorf("expected payout 35.20%%, got %s", got)
	}
}

func TestEvaluateMisdInsurerScope(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	result := table.Evaluate(record("Tractor", "30"), domain.LOBMisd, "Reliance General Insurance", nil)
	if result.Rule == nil {
		t.Fatalf("expected Reliance to match the Misd rule: %s", result.Explanation)
	}

	result = table.Evaluate(record("Tractor", "30"), domain.LOBMisd, "HDFC", nil)
	if result.Rule != nil {
		t.Errorf("expected no match for HDFC on Misd, got %q", result.Rule.Formula.Display)
	}
	if result.Explanation == "" {
		t.Error("expected an explanation for the no-match result")
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	table := newTestEngine(t).Snapshot()

	rec := record("PVT CAR COMP", "42%")
	first := table.Evaluate(rec, domain.LOBPvtCar, "Zuno", nil)
	second := table.Evaluate(rec, domain.LOBPvtCar, "Zuno", nil)

	if first.Rule != second.Rule {
		t.Error("expected the same rule on re-evaluation")
	}
	if first.Explanation != second.Explanation {
		t.Errorf("expected identical explanations, got %q and %q", first.Explanation, second.Explanation)
	}
}

func TestGuardGatesRuleMatch(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	spec := &domain.TableSpec{
		Name: "guarded",
		Rules: []domain.RuleSpec{
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "90% of Payin", Remarks: "NIL", Guard: "payin >= 30.0"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-2%", Remarks: "NIL"},
		},
	}
	if err := eng.LoadSpec(spec); err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}
	table := eng.Snapshot()

	result := table.Evaluate(record("TAXI", "45"), domain.LOBTaxi, "Acme", nil)
	if result.Rule == nil || result.Rule.Formula.Display != "90% of Payin" {
		t.Fatalf("expected guarded rule to match at payin 45, got %+v", result.Rule)
	}

	result = table.Evaluate(record("TAXI", "10"), domain.LOBTaxi, "Acme", nil)
	if result.Rule == nil || result.Rule.Formula.Display != "-2%" {
		t.Fatalf("expected fallback rule at payin 10, got %+v", result.Rule)
	}
}

func TestInvalidGuardRejectedAtLoad(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	spec := &domain.TableSpec{
		Name: "broken",
		Rules: []domain.RuleSpec{
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-2%", Guard: "payin +"},
		},
	}
	if err := eng.LoadSpec(spec); err == nil {
		t.Error("expected error for malformed guard expression")
	}
}
