// Package process orchestrates batch policy-record processing: it
// normalizes raw records, classifies them, evaluates the decision table,
// and assembles output records with per-record fault recovery.
package process

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/gridpay/internal/classify"
	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/engine"
)

// Processor runs batches of raw records through the evaluation pipeline.
type Processor struct {
	engine     *engine.Engine
	bus        domain.EventBus
	maxWorkers int
	logger     *slog.Logger
}

// NewProcessor creates a batch processor. The bus is optional; without
// one, batch.processed events are simply not published.
func NewProcessor(eng *engine.Engine, bus domain.EventBus, maxWorkers int, logger *slog.Logger) *Processor {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		engine:     eng,
		bus:        bus,
		maxWorkers: maxWorkers,
		logger:     logger.With("component", "process"),
	}
}

// Normalize coerces a raw record into the canonical form: fields are
// trimmed and the payin text is parsed into its value and bracket. The
// record is immutable from here on.
func Normalize(raw domain.RawRecord) domain.PolicyRecord {
	payinRaw := strings.TrimSpace(raw.Payin.String())
	value, bracket := classify.Payin(payinRaw)

	return domain.PolicyRecord{
		Segment:       strings.TrimSpace(raw.Segment),
		PolicyType:    strings.TrimSpace(raw.PolicyType),
		Location:      strings.TrimSpace(raw.Location),
		PayinRaw:      payinRaw,
		PayinValue:    value,
		PayinCategory: bracket,
		Remarks:       strings.TrimSpace(raw.Remark.String()),
	}
}

// Process evaluates a whole batch against a single table snapshot.
// Records are independent, so they fan out across a bounded worker pool;
// results keep input order. An empty batch or a missing table is fatal,
// while a fault inside one record only marks that record.
func (p *Processor) Process(ctx context.Context, company string, raws []domain.RawRecord) (*domain.BatchResult, error) {
	if len(raws) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := p.engine.Snapshot()
	if table == nil {
		return nil, fmt.Errorf("%w: no active table", domain.ErrTableLoad)
	}

	start := time.Now()
	batchID := uuid.New().String()
	records := make([]domain.OutputRecord, len(raws))
	resolved := make([]string, len(raws))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.maxWorkers)

	for i, raw := range raws {
		wg.Add(1)
		go func(idx int, raw domain.RawRecord) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			records[idx], resolved[idx] = p.processRecord(table, company, raw)
		}(i, raw)
	}
	wg.Wait()

	result := &domain.BatchResult{
		BatchID:     batchID,
		Company:     company,
		TableName:   table.Name,
		Records:     records,
		Summary:     summarize(company, records, resolved),
		ProcessedAt: time.Now().UTC(),
		DurationMs:  time.Since(start).Milliseconds(),
	}

	p.publish(ctx, result)

	p.logger.Info("batch.processed",
		"batch_id", batchID,
		"company", company,
		"table", table.Name,
		"records", len(records),
		"errors", result.Summary.ErrorRecords,
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

// processRecord runs one record through normalize, classify, evaluate
// and assemble. A panic anywhere in the pipeline is converted into an
// error-marked output record so the rest of the batch keeps going.
func (p *Processor) processRecord(table *engine.Table, company string, raw domain.RawRecord) (out domain.OutputRecord, segment string) {
	rec := Normalize(raw)
	segment = rec.Segment

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("record.fault", "segment", rec.Segment, "error", fmt.Sprint(r))
			out = domain.OutputRecord{
				Segment:          rec.Segment,
				PolicyType:       rec.PolicyType,
				Location:         rec.Location,
				Payin:            domain.FormatPayout(rec.PayinValue),
				PayinValue:       rec.PayinValue,
				PayinCategory:    string(rec.PayinCategory),
				Remarks:          rec.Remarks,
				CalculatedPayout: domain.PayoutFault,
				FormulaUsed:      domain.FormulaFault,
				RuleExplanation:  fmt.Sprintf("Error: %v", r),
			}
		}
	}()

	lob := classify.LOB(rec.Segment, rec.Remarks)
	match := table.Evaluate(&rec, lob, company, p.logger)

	formula := domain.Formula{Kind: domain.FormulaIdentity}
	formulaUsed := domain.FormulaNoMatch
	if match.Rule != nil {
		formula = match.Rule.Formula
		formulaUsed = match.Rule.Formula.Display
		segment = match.Rule.Segment
	}

	out = domain.OutputRecord{
		Segment:          rec.Segment,
		PolicyType:       rec.PolicyType,
		Location:         rec.Location,
		Payin:            domain.FormatPayout(rec.PayinValue),
		PayinValue:       rec.PayinValue,
		PayinCategory:    string(rec.PayinCategory),
		Remarks:          rec.Remarks,
		CalculatedPayout: domain.FormatPayout(formula.Apply(rec.PayinValue)),
		FormulaUsed:      formulaUsed,
		RuleExplanation:  match.Explanation,
	}
	return out, segment
}

// summarize derives the batch-level view: record and error counts, the
// average payin to one decimal, distinct resolved segments, and a
// histogram of formula usage.
func summarize(company string, records []domain.OutputRecord, resolved []string) domain.Summary {
	summary := domain.Summary{
		TotalRecords: len(records),
		Company:      company,
		FormulaUsage: make(map[string]int),
	}

	var payinTotal float64
	segments := make(map[string]struct{})

	for i, rec := range records {
		if rec.Faulted() {
			summary.ErrorRecords++
		}
		payinTotal += rec.PayinValue
		summary.FormulaUsage[rec.FormulaUsed]++
		if resolved[i] != "" {
			segments[resolved[i]] = struct{}{}
		}
	}

	if len(records) > 0 {
		summary.AvgPayin = math.Round(payinTotal/float64(len(records))*10) / 10
	}
	summary.UniqueSegments = len(segments)
	return summary
}

// publish emits the batch.processed event. Publish failures are logged,
// never propagated: audit is best-effort, the batch result is not.
func (p *Processor) publish(ctx context.Context, result *domain.BatchResult) {
	if p.bus == nil {
		return
	}

	event := domain.BatchProcessedEvent{
		BatchID:    result.BatchID,
		Company:    result.Company,
		TableName:  result.TableName,
		Summary:    result.Summary,
		DurationMs: result.DurationMs,
		Timestamp:  result.ProcessedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("event.marshal.failed", "batch_id", result.BatchID, "error", err)
		return
	}

	if err := p.bus.Publish(ctx, domain.TopicBatchProcessed, payload); err != nil {
		p.logger.Error("event.publish.failed", "batch_id", result.BatchID, "error", err)
	}
}
