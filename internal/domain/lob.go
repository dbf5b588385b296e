package domain

import "strings"

// LOB is the line-of-business taxonomy for motor policies.
// Unknown is a valid terminal classification, not an error.
type LOB string

const (
	LOBTW      LOB = "TW"
	LOBPvtCar  LOB = "PVT CAR"
	LOBCV      LOB = "CV"
	LOBBus     LOB = "BUS"
	LOBTaxi    LOB = "TAXI"
	LOBMisd    LOB = "MISD"
	LOBUnknown LOB = "UNKNOWN"
)

// AllLOBs returns every classifiable line of business, excluding Unknown.
func AllLOBs() []LOB {
	return []LOB{LOBTW, LOBPvtCar, LOBCV, LOBBus, LOBTaxi, LOBMisd}
}

// ParseLOB resolves a table-spec LOB value. Matching is case-insensitive
// and tolerant of missing spaces ("PVTCAR").
func ParseLOB(s string) (LOB, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	collapsed := strings.ReplaceAll(normalized, " ", "")
	for _, lob := range AllLOBs() {
		if normalized == string(lob) || collapsed == strings.ReplaceAll(string(lob), " ", "") {
			return lob, true
		}
	}
	return LOBUnknown, false
}
