package domain

import "strings"

// PayinBracket is the closed, ordered set of payin categories. The string
// value is the display label, which is also how decision-table rules
// reference a bracket in their remarks condition.
type PayinBracket string

const (
	BracketBelow20 PayinBracket = "Payin Below 20%"
	Bracket21To30  PayinBracket = "Payin 21% to 30%"
	Bracket31To50  PayinBracket = "Payin 31% to 50%"
	BracketAbove50 PayinBracket = "Payin Above 50%"
)

// BracketFor maps a payin value to its bracket. Boundary values 20, 30
// and 50 belong to the lower bracket.
func BracketFor(value float64) PayinBracket {
	switch {
	case value <= 20:
		return BracketBelow20
	case value <= 30:
		return Bracket21To30
	case value <= 50:
		return Bracket31To50
	default:
		return BracketAbove50
	}
}

// ParseBracket reports whether s is a recognized bracket label,
// ignoring case and surrounding whitespace.
func ParseBracket(s string) (PayinBracket, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for _, b := range AllBrackets() {
		if strings.ToUpper(string(b)) == normalized {
			return b, true
		}
	}
	return "", false
}

// AllBrackets returns the brackets in ascending order.
func AllBrackets() []PayinBracket {
	return []PayinBracket{BracketBelow20, Bracket21To30, Bracket31To50, BracketAbove50}
}
