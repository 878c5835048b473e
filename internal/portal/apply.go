package portal

import (
	"encoding/json"
	"fmt"

	"github.com/zulandar/gramportal/internal/lifecycle"
)

// Submission kinds accepted by Apply.
const (
	KindVillage     = "village"
	KindRequirement = "requirement"
	KindIssue       = "issue"
	KindHousehold   = "household"
	KindSurvey      = "survey"
	KindAssessment  = "assessment"
)

// Kinds lists every submission kind.
var Kinds = []string{KindVillage, KindRequirement, KindIssue, KindHousehold, KindSurvey, KindAssessment}

// Apply decodes a replayed submission and runs the matching write
// operation. It returns the created entity.
func (p *Portal) Apply(kind string, payload json.RawMessage) (any, error) {
	switch kind {
	case KindVillage:
		var in lifecycle.ProfileInput
		if err := decode(payload, &in); err != nil {
			return nil, err
		}
		return result(p.SubmitVillageProfile(in))
	case KindRequirement, KindIssue:
		var in lifecycle.RequirementInput
		if err := decode(payload, &in); err != nil {
			return nil, err
		}
		if kind == KindIssue {
			return result(p.SubmitIssueReport(in))
		}
		return result(p.SubmitRequirement(in))
	case KindHousehold:
		var in lifecycle.HouseholdInput
		if err := decode(payload, &in); err != nil {
			return nil, err
		}
		return result(p.SubmitHouseholdSurvey(in))
	case KindSurvey:
		var in lifecycle.FileMeta
		if err := decode(payload, &in); err != nil {
			return nil, err
		}
		return result(p.SubmitSurveyUpload(in))
	case KindAssessment:
		var in lifecycle.AssessmentInput
		if err := decode(payload, &in); err != nil {
			return nil, err
		}
		return result(p.SubmitAssessment(in))
	default:
		return nil, &lifecycle.ValidationError{Field: "kind", Reason: fmt.Sprintf("%q is not one of %v", kind, Kinds)}
	}
}

// result drops typed nil pointers so a failed write yields a nil any.
func result[T any](v *T, err error) (any, error) {
	if v == nil {
		return nil, err
	}
	return v, err
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return &lifecycle.ValidationError{Field: "payload", Reason: "is not valid JSON: " + err.Error()}
	}
	return nil
}
