package portal

import "time"

// EventType names a completed mutation.
type EventType string

const (
	EventVillageRegistered    EventType = "village.registered"
	EventVillageAdvanced      EventType = "village.advanced"
	EventRequirementSubmitted EventType = "requirement.submitted"
	EventIssueReported        EventType = "issue.reported"
	EventRequirementAdvanced  EventType = "requirement.advanced"
	EventHouseholdSurveyed    EventType = "household.surveyed"
	EventSurveyUploaded       EventType = "survey.uploaded"
	EventAssessmentSubmitted  EventType = "assessment.submitted"
)

// Event describes a mutation after it has been applied in memory. Persisted
// is false when the durable write failed.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Village   string    `json:"village,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	At        time.Time `json:"at"`
	Persisted bool      `json:"persisted"`
}

// Subscribe registers fn to be called after every mutation. Callbacks run
// synchronously on the mutating goroutine, outside the portal lock.
func (p *Portal) Subscribe(fn func(Event)) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *Portal) publish(ev Event) {
	p.subsMu.RLock()
	subs := p.subs
	p.subsMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
