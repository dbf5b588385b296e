// Package classify maps noisy policy-record text onto the fixed
// line-of-business, segment, and payin-bracket taxonomy.
package classify

import (
	"strings"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// lobKeywords is checked in declaration order; the first set containing
// a matching keyword wins, so precedence lives here, not in code.
var lobKeywords = []struct {
	lob      domain.LOB
	keywords []string
}{
	{domain.LOBTW, []string{"TW", "2W", "MC", "SC", "1+5", "TWO WHEELER"}},
	{domain.LOBPvtCar, []string{"PVT CAR", "PRIVATE CAR", "CAR", "PCI"}},
	{domain.LOBCV, []string{"CV", "COMMERCIAL", "LCV", "GVW", "TN", "UPTO", "PCV", "GCV"}},
	{domain.LOBBus, []string{"BUS"}},
	{domain.LOBTaxi, []string{"TAXI"}},
	{domain.LOBMisd, []string{"MISD", "TRACTOR", "MISC", "AMBULANCE"}},
}

// remarkCVHints cover records where extraction leaves the vehicle make
// or tonnage hint only in remarks.
var remarkCVHints = []string{"TATA", "MARUTI", "GVW", "TN"}

// LOB classifies segment text onto a line of business by keyword
// precedence, scanning remarks for commercial-vehicle hints before
// giving up with Unknown.
func LOB(segmentText, remarksText string) domain.LOB {
	segment := strings.ToUpper(segmentText)
	for _, entry := range lobKeywords {
		if containsAny(segment, entry.keywords...) {
			return entry.lob
		}
	}

	if containsAny(strings.ToUpper(remarksText), remarkCVHints...) {
		return domain.LOBCV
	}
	return domain.LOBUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
