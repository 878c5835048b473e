// Package stats computes dashboard figures from entity collections. Every
// function scans its inputs on each call; nothing is cached.
package stats

import (
	"slices"
	"time"

	"github.com/zulandar/gramportal/internal/models"
)

// Collections is a snapshot of every entity collection.
type Collections struct {
	Villages     []models.Village
	Households   []models.Household
	Requirements []models.Requirement
	Projects     []models.Project
	Surveys      []models.SurveyUpload
}

// StatusCount holds a status and how many entities carry it.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Dashboard bundles every headline figure.
type Dashboard struct {
	TotalVillages        int           `json:"totalVillages"`
	AdarshGrams          int           `json:"adarshGrams"`
	OngoingProjects      int           `json:"ongoingProjects"`
	TotalBeneficiaries   int           `json:"totalBeneficiaries"`
	TotalPopulation      int           `json:"totalPopulation"`
	TotalRequirements    int           `json:"totalRequirements"`
	ApprovedRequirements int           `json:"approvedRequirements"`
	Surveys              int           `json:"surveys"`
	VillageStatus        []StatusCount `json:"villageStatus"`
	RequirementStatus    []StatusCount `json:"requirementStatus"`
}

// Compute builds a Dashboard from c.
func Compute(c Collections) Dashboard {
	return Dashboard{
		TotalVillages:        TotalVillages(c.Villages),
		AdarshGrams:          AdarshGramCount(c.Villages),
		OngoingProjects:      OngoingProjectCount(c.Requirements, c.Projects),
		TotalBeneficiaries:   TotalBeneficiaries(c.Households),
		TotalPopulation:      TotalPopulation(c.Villages),
		TotalRequirements:    len(c.Requirements),
		ApprovedRequirements: ApprovedRequirementCount(c.Requirements),
		Surveys:              len(c.Surveys),
		VillageStatus:        StatusDistribution(c.Villages, func(v models.Village) string { return string(v.Status) }),
		RequirementStatus:    StatusDistribution(c.Requirements, func(r models.Requirement) string { return string(r.Status) }),
	}
}

// TotalVillages returns the number of registered villages.
func TotalVillages(villages []models.Village) int {
	return len(villages)
}

// AdarshGramCount returns the number of villages in the adarsh-gram status.
func AdarshGramCount(villages []models.Village) int {
	n := 0
	for _, v := range villages {
		if v.Status == models.VillageAdarshGram {
			n++
		}
	}
	return n
}

// OngoingProjectCount counts requirements and projects in implementation.
func OngoingProjectCount(requirements []models.Requirement, projects []models.Project) int {
	n := 0
	for _, r := range requirements {
		if r.Status == models.RequirementImplementation {
			n++
		}
	}
	for _, p := range projects {
		if p.Status == models.RequirementImplementation {
			n++
		}
	}
	return n
}

// ApprovedRequirementCount counts requirements in the approved status.
func ApprovedRequirementCount(requirements []models.Requirement) int {
	n := 0
	for _, r := range requirements {
		if r.Status == models.RequirementApproved {
			n++
		}
	}
	return n
}

// TotalBeneficiaries sums family members across households. A household
// without a count contributes 0.
func TotalBeneficiaries(households []models.Household) int {
	sum := 0
	for _, h := range households {
		sum += h.Members()
	}
	return sum
}

// TotalPopulation sums the total population of every village.
func TotalPopulation(villages []models.Village) int {
	sum := 0
	for _, v := range villages {
		sum += v.TotalPopulation
	}
	return sum
}

// StatusDistribution counts items by status in a single pass. Statuses
// appear in the order they are first encountered.
func StatusDistribution[T any](items []T, status func(T) string) []StatusCount {
	var out []StatusCount
	index := make(map[string]int)
	for _, it := range items {
		s := status(it)
		i, ok := index[s]
		if !ok {
			i = len(out)
			index[s] = i
			out = append(out, StatusCount{Status: s})
		}
		out[i].Count++
	}
	return out
}

// Activity is one entry in the recent-activity feed.
type Activity struct {
	Kind   string    `json:"kind"` // village, requirement, survey
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// RecentActivity returns the n most recent villages, requirements and
// surveys, newest first. Entries with equal timestamps keep collection order
// (villages, then requirements, then surveys, each in stored order).
func RecentActivity(n int, c Collections) []Activity {
	if n <= 0 {
		return []Activity{}
	}
	all := make([]Activity, 0, len(c.Villages)+len(c.Requirements)+len(c.Surveys))
	for _, v := range c.Villages {
		all = append(all, Activity{Kind: "village", ID: v.ID, Title: v.Name, Status: string(v.Status), At: v.RegisteredAt})
	}
	for _, r := range c.Requirements {
		all = append(all, Activity{Kind: "requirement", ID: r.ID, Title: r.Title, Status: string(r.Status), At: r.SubmittedAt})
	}
	for _, s := range c.Surveys {
		all = append(all, Activity{Kind: "survey", ID: s.ID, Title: s.FileName, Status: string(s.Status), At: s.SubmittedAt})
	}
	slices.SortStableFunc(all, func(a, b Activity) int {
		return b.At.Compare(a.At)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
