package domain

import (
	"fmt"
	"time"
)

// MatchResult is the outcome of evaluating one record against the table.
// Rule is nil when no entry matched. Created per record, never persisted.
type MatchResult struct {
	Rule        *RuleEntry `json:"rule,omitempty"`
	Explanation string     `json:"explanation"`
}

// Markers used in output records when no rule matched or the record
// failed during processing.
const (
	FormulaNoMatch = "No matching rule found"
	FormulaFault   = "Error in calculation"
	PayoutFault    = "Error"
)

// OutputRecord is one processed row: the normalized input fields plus the
// computed payout, the formula description, and the match explanation.
type OutputRecord struct {
	Segment          string  `json:"segment"`
	PolicyType       string  `json:"policyType"`
	Location         string  `json:"location"`
	Payin            string  `json:"payin"`
	PayinValue       float64 `json:"payinValue"`
	PayinCategory    string  `json:"payinCategory"`
	Remarks          string  `json:"remarks"`
	CalculatedPayout string  `json:"calculatedPayout"`
	FormulaUsed      string  `json:"formulaUsed"`
	RuleExplanation  string  `json:"ruleExplanation"`
}

// Faulted reports whether this record failed during processing.
func (o *OutputRecord) Faulted() bool {
	return o.CalculatedPayout == PayoutFault
}

// FormatPayout renders a payout value for the output boundary.
// Computation stays in floating point until this point.
func FormatPayout(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// Summary is the derived batch-level view of a processing run.
type Summary struct {
	TotalRecords   int            `json:"totalRecords"`
	ErrorRecords   int            `json:"errorRecords"`
	AvgPayin       float64        `json:"avgPayin"`
	UniqueSegments int            `json:"uniqueSegments"`
	Company        string         `json:"company"`
	FormulaUsage   map[string]int `json:"formulaUsage"`
}

// BatchResult is the full outcome of processing one batch of records.
type BatchResult struct {
	BatchID     string         `json:"batchId"`
	Company     string         `json:"company"`
	TableName   string         `json:"tableName"`
	Records     []OutputRecord `json:"records"`
	Summary     Summary        `json:"summary"`
	ProcessedAt time.Time      `json:"processedAt"`
	DurationMs  int64          `json:"durationMs"`
}

// ProcessRequest is the API payload for direct record processing.
// CompanyName applies to the whole batch.
type ProcessRequest struct {
	CompanyName string      `json:"companyName"`
	Records     []RawRecord `json:"records"`
}
