// Package stats aggregates per-company processing statistics.
package stats

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// CompanyStats is the aggregate view for one company across all batches
// folded so far.
type CompanyStats struct {
	Company      string         `json:"company"`
	Batches      int            `json:"batches"`
	TotalRecords int            `json:"totalRecords"`
	ErrorRecords int            `json:"errorRecords"`
	AvgPayin     float64        `json:"avgPayin"`
	FormulaUsage map[string]int `json:"formulaUsage"`
	LastBatchAt  time.Time      `json:"lastBatchAt"`
}

// Tracker folds batch events into in-memory per-company aggregates.
// It is safe for concurrent use; the worker folds while API handlers read.
type Tracker struct {
	mu        sync.RWMutex
	companies map[string]*CompanyStats
}

// NewTracker creates an empty stats tracker.
func NewTracker() *Tracker {
	return &Tracker{
		companies: make(map[string]*CompanyStats),
	}
}

// Fold merges one batch event into the company's running aggregates.
// AvgPayin is a record-weighted running mean.
func (t *Tracker) Fold(event *domain.BatchProcessedEvent) {
	if event == nil || event.Company == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(event.Company))
	cs, ok := t.companies[key]
	if !ok {
		cs = &CompanyStats{
			Company:      event.Company,
			FormulaUsage: make(map[string]int),
		}
		t.companies[key] = cs
	}

	prev := float64(cs.TotalRecords)
	next := float64(event.Summary.TotalRecords)
	if prev+next > 0 {
		cs.AvgPayin = (cs.AvgPayin*prev + event.Summary.AvgPayin*next) / (prev + next)
	}

	cs.Batches++
	cs.TotalRecords += event.Summary.TotalRecords
	cs.ErrorRecords += event.Summary.ErrorRecords
	for formula, count := range event.Summary.FormulaUsage {
		cs.FormulaUsage[formula] += count
	}
	if event.Timestamp.After(cs.LastBatchAt) {
		cs.LastBatchAt = event.Timestamp
	}
}

// Company returns a copy of one company's aggregates, or nil if the
// company has never been seen.
func (t *Tracker) Company(name string) *CompanyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cs, ok := t.companies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	return cs.clone()
}

// Snapshot returns copies of all company aggregates, sorted by company name.
func (t *Tracker) Snapshot() []*CompanyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*CompanyStats, 0, len(t.companies))
	for _, cs := range t.companies {
		out = append(out, cs.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Company < out[j].Company
	})
	return out
}

func (cs *CompanyStats) clone() *CompanyStats {
	out := *cs
	out.FormulaUsage = make(map[string]int, len(cs.FormulaUsage))
	for k, v := range cs.FormulaUsage {
		out.FormulaUsage[k] = v
	}
	return &out
}
