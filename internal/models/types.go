// Package models contains domain models and utility types.
package models

import (
	"encoding/json"
	"strconv"

	"github.com/dropfy/dropfy-api/internal/extract"
)

// FlexFloat is a float64 that can be unmarshaled from a JSON number or a
// string. LLM responses frequently quote prices ("price": "129.90"), use
// a decimal comma ("129,90") or a full locale format ("1.299,90"); all
// forms are accepted.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler for FlexFloat.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		normalized := extract.NormalizePrice(str)
		if normalized == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(parsed)
		return nil
	}

	// null and anything else default to 0
	*f = 0
	return nil
}

// MarshalJSON implements json.Marshaler for FlexFloat.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// Float returns the FlexFloat as a standard float64.
func (f FlexFloat) Float() float64 {
	return float64(f)
}

// String formats the value as a price string with two decimals.
func (f FlexFloat) String() string {
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}
