// Package extract turns uploaded grid images into policy records using a
// vision-capable LLM.
package extract

import (
	"context"

	"github.com/opensource-finance/gridpay/internal/domain"
)

// Extractor converts an uploaded image into raw policy records.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) ([]domain.RawRecord, error)
}

// extractionPrompt instructs the model to emit the record array directly.
// Segment names here must line up with the decision table's segment
// vocabulary or nothing will match downstream.
const extractionPrompt = `You are extracting insurance policy data from an image. Return a JSON array with these exact keys: segment, policy_type, location, payin, remark.

STEP-BY-STEP EXTRACTION:

STEP 1: Identify the vehicle/policy category
- 2W, MC, MCY, SC, Scooter, EV -> TWO WHEELER
- PVT CAR, Car, PCI -> PRIVATE CAR
- CV, GVW, PCV, GCV, tonnage -> COMMERCIAL VEHICLE
- Bus -> BUS
- Taxi -> TAXI
- Tractor, Ambulance, Misd -> MISCELLANEOUS

STEP 2: Identify policy type from columns
- 1+1 column = Comp
- SATP column = TP
- If both exist, create TWO separate records

STEP 3: Map to EXACT segment (MANDATORY):

TWO WHEELER:
  IF 1+1 OR Comp OR SAOD -> segment = "TW SAOD + COMP"
  IF SATP OR TP -> segment = "TW TP"
  IF New/Fresh/1+5 -> segment = "1+5"
  NEVER use "2W", "MC", "Scooter" as segment

PRIVATE CAR:
  IF 1+1 OR Comp OR SAOD -> segment = "PVT CAR COMP + SAOD"
  IF SATP OR TP -> segment = "PVT CAR TP"
  4W means 4 wheeler means Private Car

COMMERCIAL VEHICLE:
  IF tonnage is given as upto 2.5TN -> segment = "Upto 2.5 GVW"
  ELSE -> segment = "All GVW & PCV 3W, GCV 3W"

BUS:
  IF School -> segment = "SCHOOL BUS"
  ELSE -> segment = "STAFF BUS"

TAXI:
  segment = "TAXI"

MISCELLANEOUS:
  segment = "Misd, Tractor"

STEP 4: Extract other fields
- policy_type: "Comp" or "TP"
- location: Cluster/Agency name
- payin: ONLY CD2 value as NUMBER (ignore CD1)
- remark: Additional details as STRING

CRITICAL RULES:
- payin must be numeric (63.0 not "63.0%")
- Create separate records if both 1+1 and SATP columns exist
- NEVER use raw names like "2W" in segment
- Handle negative % as positive
- When a cell holds several values (e.g. "Tata 30%; other makes 28%/26%"),
  emit one record per value with the qualifier in the remark, and use the
  lowest number for ranges
- When a column has sub-columns (e.g. SAOD Petrol / SAOD Diesel), emit one
  record per sub-column cell with the sub-column name in the remark

Return ONLY the JSON array, no markdown.`
