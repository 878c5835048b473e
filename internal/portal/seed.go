package portal

import (
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/store"
)

// SampleVillage is registered by SeedSampleData on an empty portal.
var SampleVillage = models.Village{
	ID:              "1",
	Name:            "Gram Panchayat A",
	GramPanchayat:   "GP A",
	District:        "Sample District",
	State:           "Sample State",
	TotalPopulation: 1200,
	SCPopulation:    650,
	SCPercentage:    54.2,
	CensusCode:      "SMP001",
	VillageType:     models.VillageRural,
	Status:          models.VillageRegistered,
	Location:        models.Location{Lat: 28.6139, Lng: 77.2090},
}

// SeedSampleData registers SampleVillage when no village exists yet and
// reports whether it did.
func (p *Portal) SeedSampleData() (bool, error) {
	seeded := false
	err := p.mutate(func() (Event, error) {
		if len(p.villages) > 0 {
			return Event{}, nil
		}
		v := SampleVillage
		v.RegisteredAt = p.env.Now()
		p.villages = append(p.villages, v)
		seeded = true
		err := store.SaveFrom(p.store, store.Villages, p.villages)
		return villageEvent(EventVillageRegistered, &v, err), err
	})
	return seeded, err
}
