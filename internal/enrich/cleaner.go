// Package enrich runs the occurrence enrichment pipeline: sample elevation
// for each record, then clean the result.
package enrich

import (
	"go.uber.org/zap"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// Sample pairs a record with its sampling outcome. OK is false when the
// position fell outside the raster extent or hit a no-data cell.
type Sample struct {
	Record    model.OccurrenceRecord
	Elevation float64
	OK        bool
}

// CleanStats reports what the cleaner did. Kept + Dropped always equals the
// input length.
type CleanStats struct {
	Kept       int      `json:"kept"`
	Dropped    int      `json:"dropped"`
	Clamped    int      `json:"clamped"`
	DroppedIDs []string `json:"dropped_ids,omitempty"`
}

// Clean turns sampled records into the final enriched table. Records whose
// sampling yielded no data are dropped (a final dataset-quality exclusion,
// not retried). Negative elevations are sensor or interpolation artifacts
// near sea level and are floored to zero rather than discarded. Input order
// is preserved; the transformation is pure and idempotent on its own output.
func Clean(samples []Sample) ([]model.EnrichedRecord, CleanStats) {
	var stats CleanStats
	records := make([]model.EnrichedRecord, 0, len(samples))

	for _, s := range samples {
		if !s.OK {
			stats.Dropped++
			stats.DroppedIDs = append(stats.DroppedIDs, s.Record.ID)
			continue
		}

		elev := s.Elevation
		if elev < 0 {
			elev = 0
			stats.Clamped++
		}

		records = append(records, model.EnrichedRecord{
			OccurrenceRecord: s.Record,
			Elevation:        elev,
		})
	}

	stats.Kept = len(records)
	if stats.Dropped > 0 || stats.Clamped > 0 {
		zap.L().Info("cleaner excluded or adjusted records",
			zap.Int("kept", stats.Kept),
			zap.Int("dropped", stats.Dropped),
			zap.Int("clamped", stats.Clamped),
		)
	}

	return records, stats
}
