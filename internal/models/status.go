package models

// VillageStatus is a village's position in the Adarsh Gram workflow.
type VillageStatus string

const (
	VillageRegistered     VillageStatus = "registered"
	VillageAssessment     VillageStatus = "assessment"
	VillageVDPApproved    VillageStatus = "vdp-approved"
	VillageImplementation VillageStatus = "implementation"
	VillageAdarshGram     VillageStatus = "adarsh-gram"
)

// RequirementStatus is a requirement's (or project's) position in the
// administrative review workflow.
type RequirementStatus string

const (
	RequirementPending        RequirementStatus = "pending"
	RequirementReview         RequirementStatus = "review"
	RequirementApproved       RequirementStatus = "approved"
	RequirementImplementation RequirementStatus = "implementation"
	RequirementCompleted      RequirementStatus = "completed"
)

// VillageType classifies a village for scheme eligibility.
type VillageType string

const (
	VillageRural  VillageType = "rural"
	VillageTribal VillageType = "tribal"
	VillageRemote VillageType = "remote"
)

// Category is the area a requirement or issue report concerns.
type Category string

const (
	CategoryWater               Category = "water"
	CategoryEducation           Category = "education"
	CategoryHealth              Category = "health"
	CategoryRoad                Category = "road"
	CategoryElectricity         Category = "electricity"
	CategorySanitation          Category = "sanitation"
	CategoryHousing             Category = "housing"
	CategoryInfrastructureIssue Category = "infrastructure_issue"
	CategoryOther               Category = "other"
)

// Priority is the urgency a submitter assigns to a requirement.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SurveyStatus tracks an uploaded survey file through external analysis.
type SurveyStatus string

const (
	SurveyUploaded  SurveyStatus = "uploaded"
	SurveyProcessed SurveyStatus = "processed"
)
