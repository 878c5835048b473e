// Package portal is the application context: it owns the in-memory entity
// collections, writes them through a store.Store and exposes the read/write
// contract used by the CLI and HTTP surfaces.
package portal

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/stats"
	"github.com/zulandar/gramportal/internal/store"
)

// ErrNotFound is returned when an id matches no entity.
var ErrNotFound = errors.New("portal: not found")

// Options configures a Portal.
type Options struct {
	Store store.Store
	Env   *lifecycle.Env // nil means lifecycle.NewEnv()
}

// Portal holds one loaded copy of every collection. Mutations are
// serialised; reads return copies.
type Portal struct {
	store store.Store
	env   lifecycle.Env

	mu           sync.RWMutex
	villages     []models.Village
	households   []models.Household
	requirements []models.Requirement
	projects     []models.Project
	surveys      []models.SurveyUpload

	subsMu sync.RWMutex
	subs   []func(Event)
}

// Open loads every collection from opts.Store.
func Open(opts Options) (*Portal, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("portal: store is required")
	}
	p := &Portal{store: opts.Store}
	if opts.Env != nil {
		p.env = *opts.Env
	} else {
		p.env = lifecycle.NewEnv()
	}

	var err error
	if p.villages, err = store.LoadInto[models.Village](p.store, store.Villages); err != nil {
		return nil, fmt.Errorf("portal: load: %w", err)
	}
	if p.households, err = store.LoadInto[models.Household](p.store, store.Households); err != nil {
		return nil, fmt.Errorf("portal: load: %w", err)
	}
	if p.requirements, err = store.LoadInto[models.Requirement](p.store, store.Requirements); err != nil {
		return nil, fmt.Errorf("portal: load: %w", err)
	}
	if p.projects, err = store.LoadInto[models.Project](p.store, store.Projects); err != nil {
		return nil, fmt.Errorf("portal: load: %w", err)
	}
	if p.surveys, err = store.LoadInto[models.SurveyUpload](p.store, store.Surveys); err != nil {
		return nil, fmt.Errorf("portal: load: %w", err)
	}
	return p, nil
}

// Villages returns a snapshot of every village in registration order.
func (p *Portal) Villages() []models.Village {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.villages)
}

// Households returns a snapshot of every surveyed household.
func (p *Portal) Households() []models.Household {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.households)
}

// Requirements returns a snapshot of every requirement, newest first.
func (p *Portal) Requirements() []models.Requirement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.requirements)
}

// Projects returns a snapshot of every project.
func (p *Portal) Projects() []models.Project {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.projects)
}

// Surveys returns a snapshot of every survey upload.
func (p *Portal) Surveys() []models.SurveyUpload {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.surveys)
}

// Village returns the village with the given id.
func (p *Portal) Village(id string) (models.Village, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i := slices.IndexFunc(p.villages, func(v models.Village) bool { return v.ID == id })
	if i < 0 {
		return models.Village{}, false
	}
	return p.villages[i], true
}

// Requirement returns the requirement with the given id.
func (p *Portal) Requirement(id string) (models.Requirement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i := slices.IndexFunc(p.requirements, func(r models.Requirement) bool { return r.ID == id })
	if i < 0 {
		return models.Requirement{}, false
	}
	return p.requirements[i], true
}

// Collections returns a snapshot of every collection.
func (p *Portal) Collections() stats.Collections {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return stats.Collections{
		Villages:     slices.Clone(p.villages),
		Households:   slices.Clone(p.households),
		Requirements: slices.Clone(p.requirements),
		Projects:     slices.Clone(p.projects),
		Surveys:      slices.Clone(p.surveys),
	}
}

// Stats recomputes the dashboard figures.
func (p *Portal) Stats() stats.Dashboard {
	return stats.Compute(p.Collections())
}

// RecentActivity returns the n most recent submissions across villages,
// requirements and surveys.
func (p *Portal) RecentActivity(n int) []stats.Activity {
	return stats.RecentActivity(n, p.Collections())
}

// mutate runs fn under the write lock and publishes the event it returns
// once the lock is released.
func (p *Portal) mutate(fn func() (Event, error)) error {
	p.mu.Lock()
	ev, err := fn()
	p.mu.Unlock()
	if ev.Type != "" {
		p.publish(ev)
	}
	return err
}
