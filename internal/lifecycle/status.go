package lifecycle

import (
	"fmt"
	"strings"

	"github.com/zulandar/gramportal/internal/models"
)

// Kind names an entity kind that has a status state machine.
type Kind string

const (
	KindVillage     Kind = "village"
	KindRequirement Kind = "requirement"
)

// VillageOrder is the total order of village statuses.
var VillageOrder = []models.VillageStatus{
	models.VillageRegistered,
	models.VillageAssessment,
	models.VillageVDPApproved,
	models.VillageImplementation,
	models.VillageAdarshGram,
}

// RequirementOrder is the total order of requirement statuses.
var RequirementOrder = []models.RequirementStatus{
	models.RequirementPending,
	models.RequirementReview,
	models.RequirementApproved,
	models.RequirementImplementation,
	models.RequirementCompleted,
}

// progress maps each position in an order table to its display percentage.
var progress = []int{25, 50, 75, 90, 100}

var statusLabels = map[string]string{
	string(models.VillageRegistered):     "Registered",
	string(models.VillageAssessment):     "Under Assessment",
	string(models.VillageVDPApproved):    "VDP Approved",
	string(models.VillageImplementation): "Implementation",
	string(models.VillageAdarshGram):     "Adarsh Gram",
	string(models.RequirementPending):    "Pending",
	string(models.RequirementReview):     "Under Review",
	string(models.RequirementApproved):   "Approved",
	string(models.RequirementCompleted):  "Completed",
}

var villageColors = map[models.VillageStatus]string{
	models.VillageRegistered:     "#FF9800",
	models.VillageAssessment:     "#2196F3",
	models.VillageVDPApproved:    "#4CAF50",
	models.VillageImplementation: "#9C27B0",
	models.VillageAdarshGram:     "#2E7D32",
}

func indexOf[S ~string](order []S, s S) int {
	for i, v := range order {
		if v == s {
			return i
		}
	}
	return -1
}

// successor returns the status after s, or false if s is terminal or unknown.
func successor[S ~string](order []S, s S) (S, bool) {
	i := indexOf(order, s)
	if i < 0 || i == len(order)-1 {
		var zero S
		return zero, false
	}
	return order[i+1], true
}

// isImmediateSuccessor reports whether to directly follows from.
func isImmediateSuccessor[S ~string](order []S, from, to S) bool {
	next, ok := successor(order, from)
	return ok && next == to
}

// VillageSuccessor returns the status that follows s.
func VillageSuccessor(s models.VillageStatus) (models.VillageStatus, bool) {
	return successor(VillageOrder, s)
}

// RequirementSuccessor returns the status that follows s.
func RequirementSuccessor(s models.RequirementStatus) (models.RequirementStatus, bool) {
	return successor(RequirementOrder, s)
}

// ProgressPercentage maps a status to its fixed display percentage. Unknown
// statuses, including ones written by newer versions, map to 0.
func ProgressPercentage(status string, kind Kind) int {
	var i int
	switch kind {
	case KindVillage:
		i = indexOf(VillageOrder, models.VillageStatus(status))
	case KindRequirement:
		i = indexOf(RequirementOrder, models.RequirementStatus(status))
	default:
		return 0
	}
	if i < 0 {
		return 0
	}
	return progress[i]
}

// StatusLabel returns display text for a status, or the status itself when
// it has none.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// StatusColor returns the map marker colour for a village status.
func StatusColor(s models.VillageStatus) string {
	if c, ok := villageColors[s]; ok {
		return c
	}
	return "#666"
}

// ParseVillageStatus parses a village status, case-insensitive.
func ParseVillageStatus(s string) (models.VillageStatus, error) {
	v := models.VillageStatus(strings.ToLower(strings.TrimSpace(s)))
	if indexOf(VillageOrder, v) < 0 {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a village status", s)}
	}
	return v, nil
}

// ParseRequirementStatus parses a requirement status, case-insensitive.
func ParseRequirementStatus(s string) (models.RequirementStatus, error) {
	v := models.RequirementStatus(strings.ToLower(strings.TrimSpace(s)))
	if indexOf(RequirementOrder, v) < 0 {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a requirement status", s)}
	}
	return v, nil
}

// Categories lists every requirement category.
var Categories = []models.Category{
	models.CategoryWater,
	models.CategoryEducation,
	models.CategoryHealth,
	models.CategoryRoad,
	models.CategoryElectricity,
	models.CategorySanitation,
	models.CategoryHousing,
	models.CategoryInfrastructureIssue,
	models.CategoryOther,
}

// Priorities lists every priority from least to most urgent.
var Priorities = []models.Priority{
	models.PriorityLow,
	models.PriorityMedium,
	models.PriorityHigh,
	models.PriorityUrgent,
}

// VillageTypes lists every village type.
var VillageTypes = []models.VillageType{
	models.VillageRural,
	models.VillageTribal,
	models.VillageRemote,
}

// ParseCategory parses a category; empty means other.
func ParseCategory(s string) (models.Category, error) {
	return parseEnum(Categories, "category", s, models.CategoryOther)
}

// ParsePriority parses a priority; empty means medium.
func ParsePriority(s string) (models.Priority, error) {
	return parseEnum(Priorities, "priority", s, models.PriorityMedium)
}

// ParseVillageType parses a village type; empty means rural.
func ParseVillageType(s string) (models.VillageType, error) {
	return parseEnum(VillageTypes, "villageType", s, models.VillageRural)
}

func parseEnum[S ~string](values []S, field, s string, def S) (S, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	if indexOf(values, S(s)) < 0 {
		var zero S
		return zero, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not one of %v", s, values)}
	}
	return S(s), nil
}
