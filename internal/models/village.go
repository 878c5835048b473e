package models

import "time"

// Location is a WGS84 coordinate used by the map view.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Village is a registered village profile (Format-1).
type Village struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	GramPanchayat   string        `json:"gramPanchayat"`
	District        string        `json:"district"`
	State           string        `json:"state"`
	TotalPopulation int           `json:"totalPopulation"`
	SCPopulation    int           `json:"scPopulation"`
	SCPercentage    float64       `json:"scPercentage"`
	CensusCode      string        `json:"censusCode"`
	VillageType     VillageType   `json:"villageType"`
	Status          VillageStatus `json:"status"`
	RegisteredAt    time.Time     `json:"registrationDate"`
	Location        Location      `json:"location"`
}
