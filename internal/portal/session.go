package portal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/store"
)

// LoginInput holds the official login form.
type LoginInput struct {
	OfficialID string `json:"officialId"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// Identity is the logged-in official. The password is never kept.
type Identity struct {
	OfficialID string    `json:"officialId"`
	Department string    `json:"department"`
	LoginTime  time.Time `json:"loginTime"`
}

// Login records the official as the current user. Every field is required;
// credentials are not verified.
func (p *Portal) Login(in LoginInput) (*Identity, error) {
	for _, f := range []struct{ field, value string }{
		{"officialId", in.OfficialID},
		{"password", in.Password},
		{"department", in.Department},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, &lifecycle.ValidationError{Field: f.field, Reason: "is required"}
		}
	}
	id := &Identity{
		OfficialID: strings.TrimSpace(in.OfficialID),
		Department: strings.TrimSpace(in.Department),
		LoginTime:  p.env.Now(),
	}
	b, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("portal: encode identity: %w", err)
	}
	if err := p.store.SetSession(store.CurrentUser, string(b)); err != nil {
		return id, err
	}
	return id, nil
}

// Logout clears the current user.
func (p *Portal) Logout() error {
	return p.store.SetSession(store.CurrentUser, "")
}

// CurrentUser returns the logged-in official, if any.
func (p *Portal) CurrentUser() (*Identity, bool, error) {
	v, ok, err := p.store.GetSession(store.CurrentUser)
	if err != nil || !ok || v == "" {
		return nil, false, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(v), &id); err != nil {
		return nil, false, fmt.Errorf("portal: decode identity: %w", err)
	}
	return &id, true, nil
}

// SelectVillage makes id the village forms default to.
func (p *Portal) SelectVillage(id string) error {
	if _, ok := p.Village(id); !ok {
		return fmt.Errorf("%w: village %s", ErrNotFound, id)
	}
	return p.store.SetSession(store.SelectedVillage, id)
}

// SelectedVillage returns the selected village. A selection pointing at a
// village that no longer exists reports false.
func (p *Portal) SelectedVillage() (models.Village, bool, error) {
	id, ok, err := p.store.GetSession(store.SelectedVillage)
	if err != nil || !ok || id == "" {
		return models.Village{}, false, err
	}
	v, ok := p.Village(id)
	return v, ok, nil
}

// SaveDraft stores a partially completed form.
func (p *Portal) SaveDraft(form string, data map[string]string, step int) (*store.Draft, error) {
	if strings.TrimSpace(form) == "" {
		return nil, &lifecycle.ValidationError{Field: "form", Reason: "is required"}
	}
	d := store.Draft{Form: form, Data: data, Step: step, SavedAt: p.env.Now()}
	if err := p.store.SaveDraft(d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDraft returns the saved draft for form.
func (p *Portal) LoadDraft(form string) (*store.Draft, bool, error) {
	return p.store.LoadDraft(form)
}
