package classify

import (
	"strings"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// Segment reports whether a record's segment text belongs to a rule's
// canonical segment. Matching is LOB-specific rather than a generic
// substring test; each branch mirrors how the payout grids are written.
func Segment(lob domain.LOB, ruleSegment, recordText string) bool {
	rule := strings.ToUpper(ruleSegment)
	text := strings.ToUpper(recordText)

	switch lob {
	case domain.LOBCV:
		return matchCV(rule, text)
	case domain.LOBBus:
		return matchBus(rule, text)
	case domain.LOBPvtCar:
		return matchPvtCar(rule, text)
	case domain.LOBTW:
		return matchTW(rule, text)
	case domain.LOBTaxi, domain.LOBMisd:
		// Single canonical segment per grid; LOB match is enough.
		return true
	default:
		return false
	}
}

// matchCV buckets commercial vehicles by tonnage: explicit "up to 2.5"
// phrasing selects the light-tonnage rule, everything else collapses
// into the grid's default bucket.
func matchCV(rule, text string) bool {
	if containsAny(text, "UPTO 2.5", "2.5 TN", "2.5 GVW") {
		return strings.Contains(rule, "UPTO 2.5")
	}
	return strings.Contains(rule, "ALL GVW")
}

// matchBus distinguishes school and staff buses. Records naming neither
// default to staff bus.
func matchBus(rule, text string) bool {
	if strings.Contains(text, "SCHOOL") {
		return strings.Contains(rule, "SCHOOL")
	}
	return strings.Contains(rule, "STAFF")
}

// matchPvtCar keeps comprehensive and third-party rules mutually
// exclusive: composite texts like "Comp+TP" resolve to the COMP rule
// and never double-match.
func matchPvtCar(rule, text string) bool {
	if strings.Contains(rule, "COMP") {
		return containsAny(text, "COMP", "COMPREHENSIVE", "PACKAGE", "1ST PARTY", "1+1")
	}
	if strings.Contains(rule, "TP") {
		return strings.Contains(text, "TP") && !strings.Contains(text, "COMP")
	}
	return false
}

// matchTW resolves the three two-wheeler segments. The TP branch
// deliberately has no COMP exclusion, matching how the source grids
// have always been evaluated.
func matchTW(rule, text string) bool {
	switch {
	case strings.Contains(rule, "1+5"):
		return containsAny(text, "1+5", "NEW", "FRESH")
	case strings.Contains(rule, "SAOD"):
		return containsAny(text, "SAOD", "COMP", "PACKAGE", "1ST PARTY", "1+1")
	case strings.Contains(rule, "TP"):
		return strings.Contains(text, "TP")
	default:
		return false
	}
}
