package lifecycle

import (
	"maps"
	"strconv"
	"strings"

	"github.com/zulandar/gramportal/internal/models"
)

// AssessmentProjectType is the project type recorded for infrastructure
// assessments.
const AssessmentProjectType = "infrastructure-assessment"

// HouseholdInput holds a household survey (Format-3A).
type HouseholdInput struct {
	VillageID     string            `json:"villageId"`
	HouseholdID   string            `json:"householdId"`
	HeadName      string            `json:"headName"`
	FamilyMembers string            `json:"familyMembers"` // optional
	SurveyData    map[string]string `json:"surveyData"`
}

// CreateHousehold validates a household survey and returns the record.
func CreateHousehold(in HouseholdInput, env Env) (*models.Household, error) {
	if strings.TrimSpace(in.HouseholdID) == "" {
		return nil, required("householdId")
	}
	if strings.TrimSpace(in.HeadName) == "" {
		return nil, required("headName")
	}
	var members *int
	if s := strings.TrimSpace(in.FamilyMembers); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &ValidationError{Field: "familyMembers", Reason: "must be a whole number"}
		}
		members = &n
	}
	return &models.Household{
		ID:            env.IDs.Next(),
		VillageID:     strings.TrimSpace(in.VillageID),
		HouseholdID:   strings.TrimSpace(in.HouseholdID),
		HeadName:      strings.TrimSpace(in.HeadName),
		FamilyMembers: members,
		SurveyData:    maps.Clone(in.SurveyData),
		SurveyedAt:    env.Now(),
	}, nil
}

// FileMeta describes an uploaded survey file. Only metadata is kept.
type FileMeta struct {
	VillageID string `json:"villageId"`
	FileName  string `json:"fileName"`
	Size      int64  `json:"fileSize"`
}

// CreateSurveyUpload records survey file metadata in the uploaded status.
func CreateSurveyUpload(in FileMeta, env Env) (*models.SurveyUpload, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, required("fileName")
	}
	if in.Size < 0 {
		return nil, &ValidationError{Field: "fileSize", Reason: "must not be negative"}
	}
	return &models.SurveyUpload{
		ID:          env.IDs.Next(),
		VillageID:   strings.TrimSpace(in.VillageID),
		FileName:    strings.TrimSpace(in.FileName),
		FileSize:    in.Size,
		Status:      models.SurveyUploaded,
		SubmittedAt: env.Now(),
	}, nil
}

// AssessmentInput holds an infrastructure assessment (Format-2).
type AssessmentInput struct {
	VillageID string            `json:"villageId"`
	Date      string            `json:"date"`
	Officer   string            `json:"officer"`
	Data      map[string]string `json:"data"`
}

// CreateAssessment returns a completed infrastructure-assessment project.
func CreateAssessment(in AssessmentInput, env Env) (*models.Project, error) {
	if strings.TrimSpace(in.VillageID) == "" {
		return nil, required("villageId")
	}
	return &models.Project{
		ID:         env.IDs.Next(),
		Type:       AssessmentProjectType,
		VillageID:  strings.TrimSpace(in.VillageID),
		Status:     models.RequirementCompleted,
		Officer:    strings.TrimSpace(in.Officer),
		AssessedOn: strings.TrimSpace(in.Date),
		Data:       maps.Clone(in.Data),
		CreatedAt:  env.Now(),
	}, nil
}
