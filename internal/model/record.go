package model

import "time"

// OccurrenceRecord is one species-sighting observation as loaded from a
// delimited occurrence export.
type OccurrenceRecord struct {
	ID              string  `json:"id"`
	Family          string  `json:"family"`
	Genus           string  `json:"genus"`
	Species         string  `json:"species"`
	IndividualCount *int    `json:"individual_count,omitempty"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	EventDate       string  `json:"event_date"`
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	InstitutionCode string  `json:"institution_code"`
}

// EnrichedRecord is an OccurrenceRecord augmented with terrain elevation
// sampled from the raster surface. After cleaning, Elevation is always
// present and never negative.
type EnrichedRecord struct {
	OccurrenceRecord
	Elevation float64 `json:"elevation"`
}

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunStats holds the per-run audit counters. The conservation law
// Kept + Dropped == Loaded - Skipped holds for every run.
type RunStats struct {
	Loaded  int `json:"loaded"`  // rows successfully parsed from the input file
	Skipped int `json:"skipped"` // malformed or out-of-range rows rejected at load
	Dropped int `json:"dropped"` // records excluded because sampling yielded no data
	Clamped int `json:"clamped"` // negative elevations floored to zero
	Kept    int `json:"kept"`    // records in the final enriched table
}

// Run represents a single enrichment run.
type Run struct {
	ID         string    `json:"id"`
	CSVPath    string    `json:"csv_path"`
	RasterPath string    `json:"raster_path"`
	Status     RunStatus `json:"status"`
	Stats      *RunStats `json:"stats,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
