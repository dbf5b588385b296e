package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// Grid formula strings come in a handful of shapes: "90% of Payin",
// "Less 2% of Payin", "-3%" (flat deduction), and "Payin" (identity).
var (
	percentOfPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)%\s*of\s*Payin$`)
	lessOfPattern    = regexp.MustCompile(`(?i)^Less\s+(\d+(?:\.\d+)?)%\s*of\s*Payin$`)
	flatPattern      = regexp.MustCompile(`^-\s*(\d+(?:\.\d+)?)\s*%?$`)
)

// ParseFormula turns a grid formula string into its computable form.
// The display string is preserved verbatim; it is what output records
// and usage histograms report.
func ParseFormula(display string) (domain.Formula, error) {
	trimmed := strings.TrimSpace(display)
	if trimmed == "" {
		return domain.Formula{}, fmt.Errorf("%w: formula is required", domain.ErrInvalidRule)
	}
	if strings.EqualFold(trimmed, "Payin") {
		return domain.Formula{Kind: domain.FormulaIdentity, Display: trimmed}, nil
	}
	if m := lessOfPattern.FindStringSubmatch(trimmed); m != nil {
		points, _ := strconv.ParseFloat(m[1], 64)
		return domain.Formula{Kind: domain.FormulaSubtractFlat, Points: points, Display: trimmed}, nil
	}
	if m := percentOfPattern.FindStringSubmatch(trimmed); m != nil {
		factor, _ := strconv.ParseFloat(m[1], 64)
		return domain.Formula{Kind: domain.FormulaPercentOf, Factor: factor / 100, Display: trimmed}, nil
	}
	if m := flatPattern.FindStringSubmatch(trimmed); m != nil {
		points, _ := strconv.ParseFloat(m[1], 64)
		return domain.Formula{Kind: domain.FormulaSubtractFlat, Points: points, Display: trimmed}, nil
	}
	return domain.Formula{}, fmt.Errorf("%w: unrecognized formula %q", domain.ErrInvalidRule, display)
}
