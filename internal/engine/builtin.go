package engine

import "github.com/opensource-finance/gridpay/internal/domain"

// BuiltinSpec returns the compiled-in payout grid used when no table
// file is configured and the repository holds no active table. Row
// order is load-bearing: the TW TP explicit-insurer row must come
// before the rest-of-companies rows, and the CV "Upto 2.5 GVW" rows
// before the catch-all tonnage bucket.
func BuiltinSpec() *domain.TableSpec {
	return &domain.TableSpec{
		Name:    "builtin",
		Version: "2025.1",
		Rules: []domain.RuleSpec{
			{LOB: "TW", Segment: "1+5", Insurers: "ALL", Formula: "90% of Payin", Remarks: "NIL"},
			{LOB: "TW", Segment: "TW SAOD + COMP", Insurers: "ALL", Formula: "90% of Payin", Remarks: "NIL"},
			{LOB: "TW", Segment: "TW TP", Insurers: "Bajaj, Digit, ICICI", Formula: "-3%", Remarks: "NIL"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-2%", Remarks: "Payin Below 20%"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-3%", Remarks: "Payin 21% to 30%"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-4%", Remarks: "Payin 31% to 50%"},
			{LOB: "TW", Segment: "TW TP", Insurers: "REST", Formula: "-5%", Remarks: "Payin Above 50%"},
			{LOB: "PVT CAR", Segment: "PVT CAR COMP + SAOD", Insurers: "ALL", Formula: "90% of Payin", Remarks: "All Fuel"},
			{LOB: "PVT CAR", Segment: "PVT CAR TP", Insurers: "ALL", Formula: "90% of Payin", Remarks: "Zuno - 21"},
			{LOB: "CV", Segment: "Upto 2.5 GVW", Insurers: "Reliance, SBI", Formula: "-2%", Remarks: "NIL"},
			{LOB: "CV", Segment: "Upto 2.5 GVW", Insurers: "REST", Formula: "-3%", Remarks: "NIL"},
			{LOB: "CV", Segment: "All GVW & PCV 3W, GCV 3W", Insurers: "ALL", Formula: "-2%", Remarks: "Payin Below 20%"},
			{LOB: "CV", Segment: "All GVW & PCV 3W, GCV 3W", Insurers: "ALL", Formula: "-3%", Remarks: "Payin 21% to 30%"},
			{LOB: "CV", Segment: "All GVW & PCV 3W, GCV 3W", Insurers: "ALL", Formula: "-4%", Remarks: "Payin 31% to 50%"},
			{LOB: "CV", Segment: "All GVW & PCV 3W, GCV 3W", Insurers: "ALL", Formula: "-5%", Remarks: "Payin Above 50%"},
			{LOB: "BUS", Segment: "SCHOOL BUS", Insurers: "ALL", Formula: "Less 2% of Payin", Remarks: "NIL"},
			{LOB: "BUS", Segment: "STAFF BUS", Insurers: "ALL", Formula: "88% of Payin", Remarks: "NIL"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-2%", Remarks: "Payin Below 20%"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-3%", Remarks: "Payin 21% to 30%"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-4%", Remarks: "Payin 31% to 50%"},
			{LOB: "TAXI", Segment: "TAXI", Insurers: "ALL", Formula: "-5%", Remarks: "Payin Above 50%"},
			{LOB: "MISD", Segment: "Misd, Tractor", Insurers: "Reliance", Formula: "88% of Payin", Remarks: "NIL"},
		},
	}
}
