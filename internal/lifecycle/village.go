package lifecycle

import (
	"math"
	"strconv"
	"strings"

	"github.com/zulandar/gramportal/internal/models"
)

// Bounding box for locations synthesized when a profile has none.
const (
	minLat = 8.0
	maxLat = 37.0
	minLng = 68.0
	maxLng = 97.0
)

// ProfileInput holds the village profile form (Format-1). Numeric fields
// arrive as entered and are parsed during validation.
type ProfileInput struct {
	Name            string           `json:"villageName"`
	GramPanchayat   string           `json:"gramPanchayat"`
	District        string           `json:"district"`
	State           string           `json:"state"`
	TotalPopulation string           `json:"totalPopulation"`
	SCPopulation    string           `json:"scPopulation"`
	SCPercentage    string           `json:"scPercentage"`
	CensusCode      string           `json:"censusCode"`
	VillageType     string           `json:"villageType"` // rural, tribal, remote; empty means rural
	Location        *models.Location `json:"location"`    // nil picks a random point in the bounding box
}

// CreateVillage validates a profile and returns a new village in the
// registered status.
func CreateVillage(in ProfileInput, env Env) (*models.Village, error) {
	text := []struct {
		field string
		value string
	}{
		{"villageName", in.Name},
		{"gramPanchayat", in.GramPanchayat},
		{"district", in.District},
		{"state", in.State},
		{"censusCode", in.CensusCode},
	}
	for _, f := range text {
		if strings.TrimSpace(f.value) == "" {
			return nil, required(f.field)
		}
	}

	total, err := parseCount("totalPopulation", in.TotalPopulation)
	if err != nil {
		return nil, err
	}
	sc, err := parseCount("scPopulation", in.SCPopulation)
	if err != nil {
		return nil, err
	}
	pct, err := parsePercent("scPercentage", in.SCPercentage)
	if err != nil {
		return nil, err
	}
	vt, err := ParseVillageType(in.VillageType)
	if err != nil {
		return nil, err
	}

	loc := randomLocation(env)
	if in.Location != nil {
		loc = *in.Location
	}

	return &models.Village{
		ID:              env.IDs.Next(),
		Name:            strings.TrimSpace(in.Name),
		GramPanchayat:   strings.TrimSpace(in.GramPanchayat),
		District:        strings.TrimSpace(in.District),
		State:           strings.TrimSpace(in.State),
		TotalPopulation: total,
		SCPopulation:    sc,
		SCPercentage:    pct,
		CensusCode:      strings.TrimSpace(in.CensusCode),
		VillageType:     vt,
		Status:          models.VillageRegistered,
		RegisteredAt:    env.Now(),
		Location:        loc,
	}, nil
}

// TransitionVillage returns a copy of v moved to next. Only the immediate
// successor of the current status is accepted; v is never modified.
func TransitionVillage(v *models.Village, next models.VillageStatus) (*models.Village, error) {
	if !isImmediateSuccessor(VillageOrder, v.Status, next) {
		succ, _ := VillageSuccessor(v.Status)
		return nil, &InvalidTransitionError{
			Kind: KindVillage,
			From: string(v.Status),
			To:   string(next),
			Next: string(succ),
		}
	}
	out := *v
	out.Status = next
	return &out, nil
}

func randomLocation(env Env) models.Location {
	return models.Location{
		Lat: minLat + env.Rand.Float64()*(maxLat-minLat),
		Lng: minLng + env.Rand.Float64()*(maxLng-minLng),
	}
}

func parseCount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, required(field)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return n, nil
}

func parsePercent(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, required(field)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return f, nil
}
