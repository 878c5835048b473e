package models

import "time"

// Requirement is a citizen- or volunteer-submitted need or issue.
type Requirement struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Category    Category          `json:"category"`
	Description string            `json:"description"`
	Priority    Priority          `json:"priority"`
	Status      RequirementStatus `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
	VillageName string            `json:"village"`
}

// Project is a work record attached to a village, such as a completed
// infrastructure assessment (Format-2).
type Project struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	VillageID  string            `json:"villageId"`
	Status     RequirementStatus `json:"status"`
	Officer    string            `json:"officer,omitempty"`
	AssessedOn string            `json:"date,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// SurveyUpload records a survey file handed off for external analysis.
type SurveyUpload struct {
	ID          string       `json:"id"`
	VillageID   string       `json:"villageId"`
	FileName    string       `json:"fileName"`
	FileSize    int64        `json:"fileSize"`
	Status      SurveyStatus `json:"status"`
	SubmittedAt time.Time    `json:"submittedAt"`
}
