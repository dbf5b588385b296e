package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/gridpay/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleSpec() *domain.TableSpec {
	return &domain.TableSpec{
		Name:    "grid-q3",
		Version: "2025.3",
		Rules: []domain.RuleSpec{
			{LOB: "TW", Segment: "TW TP", Insurers: "Bajaj, Digit", Formula: "-3", Remarks: "NIL"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-2", Remarks: "PAYIN Upto 20%"},
			{LOB: "BUS", Segment: "SCHOOL BUS", Insurers: "ALL", Formula: "Less 2% of Payin", Remarks: "NIL"},
		},
	}
}

func TestSaveAndGetTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveTable(ctx, sampleSpec()); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	got, err := repo.GetTable(ctx, "grid-q3")
	if err != nil {
		t.Fatalf("failed to get table: %v", err)
	}
	if got.Version != "2025.3" {
		t.Errorf("expected version 2025.3, got %s", got.Version)
	}
	if len(got.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(got.Rules))
	}
}

func TestRuleOrderPreserved(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	spec := sampleSpec()
	if err := repo.SaveTable(ctx, spec); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	got, err := repo.GetTable(ctx, spec.Name)
	if err != nil {
		t.Fatalf("failed to get table: %v", err)
	}

	for i, rule := range got.Rules {
		if rule.Insurers != spec.Rules[i].Insurers || rule.Formula != spec.Rules[i].Formula {
			t.Errorf("rule %d out of order: got %+v, want %+v", i, rule, spec.Rules[i])
		}
	}
}

func TestSaveTableReplacesRules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveTable(ctx, sampleSpec()); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	updated := &domain.TableSpec{
		Name:    "grid-q3",
		Version: "2025.4",
		Rules: []domain.RuleSpec{
			{LOB: "MISD", Segment: "Misd, Tractor", Insurers: "Reliance", Formula: "88% of Payin", Remarks: "NIL"},
		},
	}
	if err := repo.SaveTable(ctx, updated); err != nil {
		t.Fatalf("failed to update table: %v", err)
	}

	got, err := repo.GetTable(ctx, "grid-q3")
	if err != nil {
		t.Fatalf("failed to get table: %v", err)
	}
	if got.Version != "2025.4" {
		t.Errorf("expected version 2025.4, got %s", got.Version)
	}
	if len(got.Rules) != 1 {
		t.Errorf("expected old rules replaced, got %d rules", len(got.Rules))
	}
}

func TestGetTableNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetTable(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivateTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveTable(ctx, sampleSpec()); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}
	other := sampleSpec()
	other.Name = "grid-q4"
	if err := repo.SaveTable(ctx, other); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	if err := repo.ActivateTable(ctx, "grid-q3"); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}

	active, err := repo.GetActiveTable(ctx)
	if err != nil {
		t.Fatalf("failed to get active table: %v", err)
	}
	if active.Name != "grid-q3" {
		t.Errorf("expected grid-q3 active, got %s", active.Name)
	}

	// Activating another table swaps the single active slot
	if err := repo.ActivateTable(ctx, "grid-q4"); err != nil {
		t.Fatalf("failed to activate: %v", err)
	}

	active, err = repo.GetActiveTable(ctx)
	if err != nil {
		t.Fatalf("failed to get active table: %v", err)
	}
	if active.Name != "grid-q4" {
		t.Errorf("expected grid-q4 active, got %s", active.Name)
	}

	infos, err := repo.ListTables(ctx)
	if err != nil {
		t.Fatalf("failed to list tables: %v", err)
	}
	activeCount := 0
	for _, info := range infos {
		if info.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("expected exactly one active table, got %d", activeCount)
	}
}

func TestActivateMissingTable(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.ActivateTable(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetActiveTableNone(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetActiveTable(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound when nothing is active, got %v", err)
	}
}

func TestListTables(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveTable(ctx, sampleSpec()); err != nil {
		t.Fatalf("failed to save table: %v", err)
	}

	infos, err := repo.ListTables(ctx)
	if err != nil {
		t.Fatalf("failed to list tables: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 table, got %d", len(infos))
	}
	if infos[0].RuleCount != 3 {
		t.Errorf("expected rule count 3, got %d", infos[0].RuleCount)
	}
	if infos[0].Active {
		t.Error("expected saved table inactive until activated")
	}
}

func TestSaveAndListAudits(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		audit := &domain.BatchAudit{
			BatchID:     string(rune('a'+i)) + "-batch",
			Company:     "Acme Brokers",
			TableName:   "builtin",
			RecordCount: 10 + i,
			ErrorCount:  i,
			AvgPayin:    42.5,
			DurationMs:  120,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.SaveAudit(ctx, audit); err != nil {
			t.Fatalf("failed to save audit: %v", err)
		}
	}

	audits, err := repo.RecentAudits(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list audits: %v", err)
	}
	if len(audits) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(audits))
	}
	// Newest first
	if audits[0].BatchID != "c-batch" {
		t.Errorf("expected newest audit first, got %s", audits[0].BatchID)
	}
	if audits[0].RecordCount != 12 {
		t.Errorf("expected record count 12, got %d", audits[0].RecordCount)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("expected healthy ping, got %v", err)
	}
}

func TestRebind(t *testing.T) {
	r := &SQLRepository{driver: "postgres"}
	got := r.rebind("SELECT * FROM t WHERE a = ? AND b = ?")
	want := "SELECT * FROM t WHERE a = $1 AND b = $2"
	if got != want {
		t.Errorf("rebind: got %q, want %q", got, want)
	}

	r.driver = "sqlite"
	if got := r.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite queries should pass through, got %q", got)
	}
}
