// Package engine evaluates policy records against an ordered payout
// decision table.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/opensource-finance/gridpay/internal/classify"
	"github.com/opensource-finance/gridpay/internal/domain"
)

// Engine holds the active compiled decision table. The table pointer is
// swapped atomically under the mutex; batches evaluate against a private
// snapshot, so a swap never lands mid-batch.
type Engine struct {
	mu     sync.RWMutex
	env    *cel.Env
	table  *Table
	logger *slog.Logger
}

// NewEngine creates an engine with no table loaded.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	env, err := newGuardEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Engine{
		env:    env,
		logger: logger.With("component", "engine"),
	}, nil
}

// ValidateSpec compiles a spec without touching the active table.
func (e *Engine) ValidateSpec(spec *domain.TableSpec) error {
	_, err := Compile(spec, e.env)
	return err
}

// LoadSpec compiles a spec and swaps it in as the active table.
func (e *Engine) LoadSpec(spec *domain.TableSpec) error {
	table, err := Compile(spec, e.env)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.table = table
	e.mu.Unlock()

	e.logger.Info("table.loaded",
		"name", table.Name,
		"version", table.Version,
		"rules", table.RuleCount(),
	)
	return nil
}

// Snapshot returns the active table, or nil when none is loaded. The
// returned table is immutable; callers keep it for the whole batch.
func (e *Engine) Snapshot() *Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table
}

// RuleCount returns the active table's rule count.
func (e *Engine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.table == nil {
		return 0
	}
	return e.table.RuleCount()
}

// Evaluate matches one record against the table in declared order and
// returns the first rule whose LOB, segment, insurer scope, remarks
// condition, and guard all hold. There is no scoring: table order is the
// tie-break, which is why it is part of the table's contract.
func (t *Table) Evaluate(rec *domain.PolicyRecord, lob domain.LOB, company string, logger *slog.Logger) domain.MatchResult {
	normalized := classify.Company(company)
	var activation map[string]any

	for _, rule := range t.Rules {
		if rule.Entry.LOB != lob {
			continue
		}
		if !classify.Segment(lob, rule.Entry.Segment, rec.Segment) {
			continue
		}
		if !scopeMatches(rule.Entry, normalized, t.exclusions) {
			continue
		}
		if rule.hasBracket && rule.bracketCond != rec.PayinCategory {
			continue
		}
		if rule.guardProgram != nil {
			if activation == nil {
				activation = guardActivation(rec, lob, normalized)
			}
			if !evalGuard(rule.guardProgram, activation) {
				continue
			}
		}

		if rule.catchAll && logger != nil {
			// Unrecognized free-text conditions match unconditionally;
			// logged distinctly so tables can be audited for rules that
			// were meant to be conditional.
			logger.Debug("rule.remarks.catchall",
				"lob", lob,
				"segment", rule.Entry.Segment,
				"remarks", rule.Entry.Remarks,
			)
		}

		return domain.MatchResult{
			Rule: rule.Entry,
			Explanation: fmt.Sprintf("Matched: LOB=%s, Segment='%s', REMARKS='%s', PayinCat='%s'",
				lob, rule.Entry.Segment, rule.Entry.Remarks, rec.PayinCategory),
		}
	}

	return domain.MatchResult{
		Explanation: fmt.Sprintf("No rule for LOB=%s, Segment='%s', PayinCat='%s'",
			lob, rec.Segment, rec.PayinCategory),
	}
}
