package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawRecord is a loosely-typed policy row as produced by the extraction
// step (or posted directly by an API caller). Field types are tolerant:
// payin may arrive as a string or a number, remark as a string or a list.
type RawRecord struct {
	Segment    string     `json:"segment"`
	PolicyType string     `json:"policy_type"`
	Location   string     `json:"location"`
	Payin      FlexString `json:"payin"`
	Remark     FlexText   `json:"remark"`
}

// PolicyRecord is the canonical record after normalization.
// PayinCategory is always derived from PayinValue, never set independently.
type PolicyRecord struct {
	Segment       string       `json:"segment"`
	PolicyType    string       `json:"policyType"`
	Location      string       `json:"location"`
	PayinRaw      string       `json:"payin"`
	PayinValue    float64      `json:"payinValue"`
	PayinCategory PayinBracket `json:"payinCategory"`
	Remarks       string       `json:"remarks"`
}

// FlexString decodes a JSON string or number into a plain string.
type FlexString string

// UnmarshalJSON accepts "35%", 35, 35.5 or null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string { return string(f) }

// FlexText decodes a JSON string or array of strings into one joined string.
type FlexText string

// UnmarshalJSON accepts "text", ["a", "b"] or null. Lists are joined
// with ", " to preserve every extracted remark fragment.
func (f *FlexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*f = FlexText(strings.Join(parts, ", "))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FlexText(s)
	return nil
}

// String returns the underlying value.
func (f FlexText) String() string { return string(f) }
