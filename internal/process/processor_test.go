package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/opensource-finance/gridpay/internal/bus"
	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/engine"
)

func newTestProcessor(t *testing.T, eventBus domain.EventBus) *Processor {
	t.Helper()
	eng, err := engine.NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := eng.LoadSpec(engine.BuiltinSpec()); err != nil {
		t.Fatalf("failed to load builtin spec: %v", err)
	}
	return NewProcessor(eng, eventBus, 4, nil)
}

func rawRecord(segment, payin string) domain.RawRecord {
	var raw domain.RawRecord
	data := fmt.Sprintf(`{"segment":%q,"payin":%q}`, segment, payin)
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		panic(err)
	}
	return raw
}

func TestProcessEmptyBatch(t *testing.T) {
	p := newTestProcessor(t, nil)

	_, err := p.Process(context.Background(), "Acme", nil)
	if !errors.Is(err, domain.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestProcessWithoutTable(t *testing.T) {
	eng, err := engine.NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	p := NewProcessor(eng, nil, 4, nil)

	_, err = p.Process(context.Background(), "Acme", []domain.RawRecord{rawRecord("TW TP", "20")})
	if !errors.Is(err, domain.ErrTableLoad) {
		t.Errorf("expected ErrTableLoad, got %v", err)
	}
}

func TestProcessEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		payin   string
		company string
		payout  string
		formula string
	}{
		{"tw tp explicit insurer", "TW TP", "55%", "Bajaj", "52.00%", "-3%"},
		{"cv light tonnage", "CV upto 2.5 Tn", "15%", "Reliance", "13.00%", "-2%"},
		{"bus staff default", "BUS", "40%", "Acme", "35.20%", "88% of Payin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, nil)
			result, err := p.Process(context.Background(), tt.company, []domain.RawRecord{rawRecord(tt.segment, tt.payin)})
			if err != nil {
				t.Fatalf("process failed: %v", err)
			}
			if len(result.Records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(result.Records))
			}

			rec := result.Records[0]
			if rec.CalculatedPayout != tt.payout {
				t.Errorf("expected payout %s, got %s (%s)", tt.payout, rec.CalculatedPayout, rec.RuleExplanation)
			}
			if rec.FormulaUsed != tt.formula {
				t.Errorf("expected formula %q, got %q", tt.formula, rec.FormulaUsed)
			}
		})
	}
}

func TestProcessNoMatchFallsBackToIdentity(t *testing.T) {
	p := newTestProcessor(t, nil)

	result, err := p.Process(context.Background(), "Acme", []domain.RawRecord{rawRecord("Hovercraft", "35")})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	rec := result.Records[0]
	if rec.FormulaUsed != domain.FormulaNoMatch {
		t.Errorf("expected %q, got %q", domain.FormulaNoMatch, rec.FormulaUsed)
	}
	if rec.CalculatedPayout != "35.00%" {
		t.Errorf("expected identity payout 35.00%%, got %s", rec.CalculatedPayout)
	}
	if rec.RuleExplanation == "" {
		t.Error("expected a no-rule explanation")
	}
}

func TestProcessKeepsInputOrder(t *testing.T) {
	p := newTestProcessor(t, nil)

	var raws []domain.RawRecord
	for i := 0; i < 50; i++ {
		raws = append(raws, rawRecord("TAXI", fmt.Sprintf("%d", i+1)))
	}

	result, err := p.Process(context.Background(), "Acme", raws)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(result.Records) != 50 {
		t.Fatalf("expected 50 records, got %d", len(result.Records))
	}
	for i, rec := range result.Records {
		want := domain.FormatPayout(float64(i + 1))
		if rec.Payin != want {
			t.Fatalf("record %d out of order: expected payin %s, got %s", i, want, rec.Payin)
		}
	}
}

func TestProcessSummary(t *testing.T) {
	p := newTestProcessor(t, nil)

	raws := []domain.RawRecord{
		rawRecord("TW TP", "55"),
		rawRecord("TW TP", "55"),
		rawRecord("BUS", "40"),
	}
	result, err := p.Process(context.Background(), "Bajaj", raws)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	s := result.Summary
	if s.TotalRecords != 3 {
		t.Errorf("expected 3 total records, got %d", s.TotalRecords)
	}
	if s.ErrorRecords != 0 {
		t.Errorf("expected 0 error records, got %d", s.ErrorRecords)
	}
	if s.AvgPayin != 50.0 {
		t.Errorf("expected avg payin 50.0, got %.1f", s.AvgPayin)
	}
	if s.UniqueSegments != 2 {
		t.Errorf("expected 2 unique segments, got %d", s.UniqueSegments)
	}
	if s.FormulaUsage["-3%"] != 2 {
		t.Errorf("expected -3%% used twice, got %d", s.FormulaUsage["-3%"])
	}
	if s.FormulaUsage["88% of Payin"] != 1 {
		t.Errorf("expected 88%% of Payin used once, got %d", s.FormulaUsage["88% of Payin"])
	}
}

func TestNormalize(t *testing.T) {
	var raw domain.RawRecord
	data := `{"segment":"  TW TP ","policy_type":"TP","location":" Pune ","payin":35.5,"remark":["fleet","renewal"]}`
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	rec := Normalize(raw)
	if rec.Segment != "TW TP" {
		t.Errorf("expected trimmed segment, got %q", rec.Segment)
	}
	if rec.Location != "Pune" {
		t.Errorf("expected trimmed location, got %q", rec.Location)
	}
	if rec.PayinValue != 35.5 {
		t.Errorf("expected payin 35.5, got %.2f", rec.PayinValue)
	}
	if rec.PayinCategory != domain.Bracket31To50 {
		t.Errorf("expected 31-50 bracket, got %q", rec.PayinCategory)
	}
	if rec.Remarks != "fleet, renewal" {
		t.Errorf("expected joined remarks, got %q", rec.Remarks)
	}
}

func TestProcessPublishesBatchEvent(t *testing.T) {
	channelBus := bus.NewChannelBus(16)
	defer channelBus.Close()

	received := make(chan domain.BatchProcessedEvent, 1)
	_, err := channelBus.Subscribe(context.Background(), domain.TopicBatchProcessed, func(ctx context.Context, msg *domain.Message) error {
		var event domain.BatchProcessedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	p := newTestProcessor(t, channelBus)
	result, err := p.Process(context.Background(), "Acme", []domain.RawRecord{rawRecord("TAXI", "25")})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	select {
	case event := <-received:
		if event.BatchID != result.BatchID {
			t.Errorf("expected batch id %s, got %s", result.BatchID, event.BatchID)
		}
		if event.Summary.TotalRecords != 1 {
			t.Errorf("expected 1 record in event summary, got %d", event.Summary.TotalRecords)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch.processed event")
	}
}
