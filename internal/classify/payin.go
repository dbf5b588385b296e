package classify

import (
	"strconv"
	"strings"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// payinCleaner strips the characters extraction tends to leave around
// percentage values.
var payinCleaner = strings.NewReplacer("%", "", " ", "", "-", "")

// Payin parses a raw payin field into its numeric value and bracket.
// Empty input, "N/A" and unparseable text are recoverable defaults that
// classify as (0, Below20); this never returns an error.
func Payin(raw string) (float64, domain.PayinBracket) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "N/A") {
		return 0, domain.BracketBelow20
	}

	value, err := strconv.ParseFloat(payinCleaner.Replace(trimmed), 64)
	if err != nil {
		return 0, domain.BracketBelow20
	}
	return value, domain.BracketFor(value)
}
