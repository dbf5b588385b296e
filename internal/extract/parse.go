package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// ParseRecords turns the model's reply into raw records. Models wrap
// output in markdown fences or chat around the array despite the prompt,
// so the parse is deliberately lenient: strip fences, slice from the
// first '[' to the last ']', then validate and decode.
func ParseRecords(reply string) ([]domain.RawRecord, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in model reply", domain.ErrExtraction)
	}
	cleaned = cleaned[start : end+1]

	if err := ValidateRecords([]byte(cleaned)); err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	return records, nil
}
