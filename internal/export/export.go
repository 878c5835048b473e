// Package export writes the village map snapshot as JSON or an Excel
// workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/stats"
)

// Sheet names in the workbook.
const (
	VillagesSheet = "Villages"
	SummarySheet  = "Summary"
)

// MapData is the exported map snapshot.
type MapData struct {
	Villages        []models.Village `json:"villages"`
	ExportDate      time.Time        `json:"exportDate"`
	TotalVillages   int              `json:"totalVillages"`
	AdarshGrams     int              `json:"adarshGrams"`
	TotalPopulation int              `json:"totalPopulation"`
}

// NewMapData builds a snapshot of villages taken at now.
func NewMapData(villages []models.Village, now time.Time) MapData {
	if villages == nil {
		villages = []models.Village{}
	}
	return MapData{
		Villages:        villages,
		ExportDate:      now.UTC(),
		TotalVillages:   stats.TotalVillages(villages),
		AdarshGrams:     stats.AdarshGramCount(villages),
		TotalPopulation: stats.TotalPopulation(villages),
	}
}

// FileName returns the download name for the snapshot, e.g.
// village-map-data-2026-03-14.json.
func (d MapData) FileName(ext string) string {
	return fmt.Sprintf("village-map-data-%s.%s", d.ExportDate.Format(time.DateOnly), ext)
}

// WriteJSON writes the snapshot as indented JSON.
func WriteJSON(w io.Writer, d MapData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

var villageHeader = []any{
	"ID", "Village", "Gram Panchayat", "District", "State", "Type",
	"Population", "SC Population", "SC %", "Census Code", "Status",
	"Progress %", "Latitude", "Longitude", "Registered",
}

// WriteXLSX writes the snapshot as a workbook with one row per village and
// a summary sheet.
func WriteXLSX(w io.Writer, d MapData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", VillagesSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(VillagesSheet, "A1", &villageHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i, v := range d.Villages {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
		row := []any{
			v.ID, v.Name, v.GramPanchayat, v.District, v.State, string(v.VillageType),
			v.TotalPopulation, v.SCPopulation, v.SCPercentage, v.CensusCode,
			lifecycle.StatusLabel(string(v.Status)),
			lifecycle.ProgressPercentage(string(v.Status), lifecycle.KindVillage),
			v.Location.Lat, v.Location.Lng, v.RegisteredAt.Format(time.DateOnly),
		}
		if err := f.SetSheetRow(VillagesSheet, cell, &row); err != nil {
			return fmt.Errorf("export: write village %s: %w", v.ID, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("export: add summary: %w", err)
	}
	summary := [][]any{
		{"Export Date", d.ExportDate.Format(time.RFC3339)},
		{"Total Villages", d.TotalVillages},
		{"Adarsh Grams", d.AdarshGrams},
		{"Total Population", d.TotalPopulation},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("export: write summary: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
