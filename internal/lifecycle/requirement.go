package lifecycle

import (
	"strings"

	"github.com/zulandar/gramportal/internal/models"
)

// RequirementInput holds a requirement or issue-report submission.
type RequirementInput struct {
	Title       string `json:"title"`
	Category    string `json:"category"` // empty means other
	Description string `json:"description"`
	Priority    string `json:"priority"` // empty means medium
	VillageName string `json:"village"`
}

// CreateRequirement validates a submission and returns a new requirement in
// the pending status.
func CreateRequirement(in RequirementInput, env Env) (*models.Requirement, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, required("title")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, required("description")
	}
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	pri, err := ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	return &models.Requirement{
		ID:          env.IDs.Next(),
		Title:       strings.TrimSpace(in.Title),
		Category:    cat,
		Description: strings.TrimSpace(in.Description),
		Priority:    pri,
		Status:      models.RequirementPending,
		SubmittedAt: env.Now(),
		VillageName: strings.TrimSpace(in.VillageName),
	}, nil
}

// TransitionRequirement returns a copy of r moved to next. Only the immediate
// successor of the current status is accepted; r is never modified.
func TransitionRequirement(r *models.Requirement, next models.RequirementStatus) (*models.Requirement, error) {
	if !isImmediateSuccessor(RequirementOrder, r.Status, next) {
		succ, _ := RequirementSuccessor(r.Status)
		return nil, &InvalidTransitionError{
			Kind: KindRequirement,
			From: string(r.Status),
			To:   string(next),
			Next: string(succ),
		}
	}
	out := *r
	out.Status = next
	return &out, nil
}
