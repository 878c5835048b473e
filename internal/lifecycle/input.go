package lifecycle

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON accepts population figures as JSON strings or numbers.
func (in *ProfileInput) UnmarshalJSON(b []byte) error {
	type plain ProfileInput
	var aux struct {
		plain
		TotalPopulation json.RawMessage `json:"totalPopulation"`
		SCPopulation    json.RawMessage `json:"scPopulation"`
		SCPercentage    json.RawMessage `json:"scPercentage"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*in = ProfileInput(aux.plain)
	in.TotalPopulation = formText(aux.TotalPopulation)
	in.SCPopulation = formText(aux.SCPopulation)
	in.SCPercentage = formText(aux.SCPercentage)
	return nil
}

// UnmarshalJSON accepts the family-member count as a JSON string or number.
func (in *HouseholdInput) UnmarshalJSON(b []byte) error {
	type plain HouseholdInput
	var aux struct {
		plain
		FamilyMembers json.RawMessage `json:"familyMembers"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*in = HouseholdInput(aux.plain)
	in.FamilyMembers = formText(aux.FamilyMembers)
	return nil
}

// formText returns a raw JSON value as the text a form field would carry.
// Strings are unquoted, null becomes empty, anything else is kept verbatim
// and left to field validation.
func formText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
