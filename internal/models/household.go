package models

import "time"

// Household is one surveyed household (Format-3A). VillageID is a weak
// reference; the village may not exist.
type Household struct {
	ID            string            `json:"id"`
	VillageID     string            `json:"villageId"`
	HouseholdID   string            `json:"householdId"`
	HeadName      string            `json:"headName"`
	FamilyMembers *int              `json:"familyMembers,omitempty"`
	SurveyData    map[string]string `json:"surveyData,omitempty"`
	SurveyedAt    time.Time         `json:"surveyedAt"`
}

// Members returns the family-member count, treating an absent count as 0.
func (h Household) Members() int {
	if h.FamilyMembers == nil {
		return 0
	}
	return *h.FamilyMembers
}
