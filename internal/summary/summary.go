// Package summary computes per-group elevation statistics over the
// enriched occurrence table.
package summary

import (
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"github.com/rotisserie/eris"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// GroupStat holds elevation statistics for one group of records.
type GroupStat struct {
	Key    string  `json:"key"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// keyFuncs maps a grouping column name to a record accessor.
var keyFuncs = map[string]func(model.EnrichedRecord) string{
	"species":     func(r model.EnrichedRecord) string { return r.Species },
	"genus":       func(r model.EnrichedRecord) string { return r.Genus },
	"family":      func(r model.EnrichedRecord) string { return r.Family },
	"month":       func(r model.EnrichedRecord) string { return strconv.Itoa(r.Month) },
	"year":        func(r model.EnrichedRecord) string { return strconv.Itoa(r.Year) },
	"institution": func(r model.EnrichedRecord) string { return r.InstitutionCode },
}

// Elevation groups records by the named column and computes elevation
// statistics per group. Groups are ordered by descending record count,
// ties broken by key, so the output is deterministic.
func Elevation(records []model.EnrichedRecord, by string) ([]GroupStat, error) {
	keyFn, ok := keyFuncs[by]
	if !ok {
		return nil, eris.Errorf("summary: unknown grouping column %q", by)
	}

	groups := make(map[string][]float64)
	for _, rec := range records {
		key := keyFn(rec)
		groups[key] = append(groups[key], rec.Elevation)
	}

	out := make([]GroupStat, 0, len(groups))
	for key, xs := range groups {
		sort.Float64s(xs)
		s := stats.Sample{Xs: xs, Sorted: true}
		min, max := s.Bounds()
		out = append(out, GroupStat{
			Key:    key,
			N:      len(xs),
			Mean:   s.Mean(),
			StdDev: s.StdDev(),
			Median: s.Quantile(0.5),
			Min:    min,
			Max:    max,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})

	return out, nil
}
