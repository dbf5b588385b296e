package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// CSVBytes renders a batch result as CSV with the shared column order.
// No title row; CSV consumers want a clean header line.
func CSVBytes(result *domain.BatchResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("batch result is required")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, rec := range result.Records {
		if err := w.Write(recordRow(rec)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
