package portal

import (
	"fmt"
	"slices"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/store"
)

// Write operations validate, create, persist and publish. A validation or
// transition error leaves every collection unchanged. A *store.StorageFault
// is returned together with the entity: it exists in memory but may not be
// durable until a later save of the same collection succeeds.

// SubmitVillageProfile registers a village.
func (p *Portal) SubmitVillageProfile(in lifecycle.ProfileInput) (*models.Village, error) {
	var v *models.Village
	err := p.mutate(func() (Event, error) {
		var err error
		if v, err = lifecycle.CreateVillage(in, p.env); err != nil {
			return Event{}, err
		}
		p.villages = append(p.villages, *v)
		err = store.SaveFrom(p.store, store.Villages, p.villages)
		return villageEvent(EventVillageRegistered, v, err), err
	})
	return v, err
}

// SubmitRequirement records a requirement at the head of the collection.
func (p *Portal) SubmitRequirement(in lifecycle.RequirementInput) (*models.Requirement, error) {
	return p.submitRequirement(in, EventRequirementSubmitted)
}

// SubmitIssueReport records an infrastructure issue as a requirement.
func (p *Portal) SubmitIssueReport(in lifecycle.RequirementInput) (*models.Requirement, error) {
	in.Category = string(models.CategoryInfrastructureIssue)
	return p.submitRequirement(in, EventIssueReported)
}

func (p *Portal) submitRequirement(in lifecycle.RequirementInput, typ EventType) (*models.Requirement, error) {
	var r *models.Requirement
	err := p.mutate(func() (Event, error) {
		var err error
		if r, err = lifecycle.CreateRequirement(in, p.env); err != nil {
			return Event{}, err
		}
		p.requirements = slices.Insert(p.requirements, 0, *r)
		err = store.SaveFrom(p.store, store.Requirements, p.requirements)
		return requirementEvent(typ, r, err), err
	})
	return r, err
}

// SubmitSurveyUpload records survey file metadata.
func (p *Portal) SubmitSurveyUpload(in lifecycle.FileMeta) (*models.SurveyUpload, error) {
	var s *models.SurveyUpload
	err := p.mutate(func() (Event, error) {
		var err error
		if s, err = lifecycle.CreateSurveyUpload(in, p.env); err != nil {
			return Event{}, err
		}
		p.surveys = append(p.surveys, *s)
		err = store.SaveFrom(p.store, store.Surveys, p.surveys)
		return Event{
			Type: EventSurveyUploaded, ID: s.ID, Title: s.FileName, Status: string(s.Status),
			Village: s.VillageID, At: s.SubmittedAt, Persisted: err == nil,
		}, err
	})
	return s, err
}

// SubmitHouseholdSurvey records a household survey.
func (p *Portal) SubmitHouseholdSurvey(in lifecycle.HouseholdInput) (*models.Household, error) {
	var h *models.Household
	err := p.mutate(func() (Event, error) {
		var err error
		if h, err = lifecycle.CreateHousehold(in, p.env); err != nil {
			return Event{}, err
		}
		p.households = append(p.households, *h)
		err = store.SaveFrom(p.store, store.Households, p.households)
		return Event{
			Type: EventHouseholdSurveyed, ID: h.ID, Title: h.HeadName,
			Village: h.VillageID, At: h.SurveyedAt, Persisted: err == nil,
		}, err
	})
	return h, err
}

// SubmitAssessment records a completed infrastructure assessment project.
func (p *Portal) SubmitAssessment(in lifecycle.AssessmentInput) (*models.Project, error) {
	var pr *models.Project
	err := p.mutate(func() (Event, error) {
		var err error
		if pr, err = lifecycle.CreateAssessment(in, p.env); err != nil {
			return Event{}, err
		}
		p.projects = append(p.projects, *pr)
		err = store.SaveFrom(p.store, store.Projects, p.projects)
		return Event{
			Type: EventAssessmentSubmitted, ID: pr.ID, Title: pr.Type, Status: string(pr.Status),
			Village: pr.VillageID, At: pr.CreatedAt, Persisted: err == nil,
		}, err
	})
	return pr, err
}

// AdvanceVillage moves a village to next, which must be the immediate
// successor of its status. An empty next means that successor.
func (p *Portal) AdvanceVillage(id string, next models.VillageStatus) (*models.Village, error) {
	var v *models.Village
	err := p.mutate(func() (Event, error) {
		i := slices.IndexFunc(p.villages, func(v models.Village) bool { return v.ID == id })
		if i < 0 {
			return Event{}, fmt.Errorf("%w: village %s", ErrNotFound, id)
		}
		to := next
		if to == "" {
			to, _ = lifecycle.VillageSuccessor(p.villages[i].Status)
		}
		var err error
		if v, err = lifecycle.TransitionVillage(&p.villages[i], to); err != nil {
			return Event{}, err
		}
		p.villages[i] = *v
		err = store.SaveFrom(p.store, store.Villages, p.villages)
		ev := villageEvent(EventVillageAdvanced, v, err)
		ev.At = p.env.Now()
		return ev, err
	})
	return v, err
}

// AdvanceRequirement moves a requirement to next, which must be the
// immediate successor of its status. An empty next means that successor.
func (p *Portal) AdvanceRequirement(id string, next models.RequirementStatus) (*models.Requirement, error) {
	var r *models.Requirement
	err := p.mutate(func() (Event, error) {
		i := slices.IndexFunc(p.requirements, func(r models.Requirement) bool { return r.ID == id })
		if i < 0 {
			return Event{}, fmt.Errorf("%w: requirement %s", ErrNotFound, id)
		}
		to := next
		if to == "" {
			to, _ = lifecycle.RequirementSuccessor(p.requirements[i].Status)
		}
		var err error
		if r, err = lifecycle.TransitionRequirement(&p.requirements[i], to); err != nil {
			return Event{}, err
		}
		p.requirements[i] = *r
		err = store.SaveFrom(p.store, store.Requirements, p.requirements)
		ev := requirementEvent(EventRequirementAdvanced, r, err)
		ev.At = p.env.Now()
		return ev, err
	})
	return r, err
}

func villageEvent(typ EventType, v *models.Village, saveErr error) Event {
	return Event{
		Type: typ, ID: v.ID, Title: v.Name, Status: string(v.Status),
		Village: v.Name, At: v.RegisteredAt, Persisted: saveErr == nil,
	}
}

func requirementEvent(typ EventType, r *models.Requirement, saveErr error) Event {
	return Event{
		Type: typ, ID: r.ID, Title: r.Title, Status: string(r.Status),
		Village: r.VillageName, Priority: string(r.Priority), At: r.SubmittedAt, Persisted: saveErr == nil,
	}
}
