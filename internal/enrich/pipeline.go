package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SoleneDerville/occurrence-atlas/internal/loader"
	"github.com/SoleneDerville/occurrence-atlas/internal/model"
	"github.com/SoleneDerville/occurrence-atlas/internal/raster"
	"github.com/SoleneDerville/occurrence-atlas/internal/store"
)

// Options configures a pipeline run.
type Options struct {
	Loader  loader.Options
	Workers int // sampling workers; <= 1 runs serially
}

// Pipeline orchestrates load, sample, clean, and persist for one run.
type Pipeline struct {
	store store.Store
	opts  Options
}

// New creates a Pipeline writing to the given store.
func New(st store.Store, opts Options) *Pipeline {
	return &Pipeline{store: st, opts: opts}
}

// Result is the outcome of a completed run.
type Result struct {
	Run     *model.Run
	Records []model.EnrichedRecord
	Stats   model.RunStats
}

// Run executes the full pipeline: load the occurrence table and the raster,
// sample elevation per record, clean, and persist. Load failures are fatal
// and abort before any records are persisted.
func (p *Pipeline) Run(ctx context.Context, csvPath, rasterPath string) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	loaded, err := loader.Load(csvPath, p.opts.Loader)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load occurrences")
	}
	log.Info("occurrences loaded",
		zap.String("file", csvPath),
		zap.Int("records", len(loaded.Records)),
		zap.Int("skipped", loaded.Skipped),
	)

	surface, err := raster.LoadASCIIGrid(rasterPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load raster")
	}

	run, err := p.store.CreateRun(ctx, csvPath, rasterPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	samples := SampleAll(ctx, surface, loaded.Records, p.opts.Workers)
	records, cleanStats := Clean(samples)

	stats := model.RunStats{
		Loaded:  len(loaded.Records),
		Skipped: loaded.Skipped,
		Dropped: cleanStats.Dropped,
		Clamped: cleanStats.Clamped,
		Kept:    cleanStats.Kept,
	}

	if err := p.store.InsertRecords(ctx, run.ID, records); err != nil {
		if failErr := p.store.FailRun(ctx, run.ID, err); failErr != nil {
			log.Warn("failed to mark run failed", zap.Error(failErr))
		}
		return nil, eris.Wrap(err, "pipeline: persist records")
	}
	if err := p.store.CompleteRun(ctx, run.ID, stats); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	run.Status = model.RunStatusComplete
	run.Stats = &stats

	log.Info("run complete",
		zap.String("run_id", run.ID),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped", stats.Dropped),
		zap.Int("clamped", stats.Clamped),
	)

	return &Result{Run: run, Records: records, Stats: stats}, nil
}

// SampleAll samples elevation for every record. With workers > 1 the stage
// runs in parallel; the surface is read-only and records are independent, so
// no coordination beyond the index-addressed result slice is needed. Output
// order matches input order regardless of worker count.
func SampleAll(ctx context.Context, surface *raster.Surface, records []model.OccurrenceRecord, workers int) []Sample {
	samples := make([]Sample, len(records))

	if workers <= 1 {
		for i, rec := range records {
			elev, ok := surface.Sample(rec.Longitude, rec.Latitude)
			samples[i] = Sample{Record: rec, Elevation: elev, OK: ok}
		}
		return samples
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		g.Go(func() error {
			elev, ok := surface.Sample(rec.Longitude, rec.Latitude)
			samples[i] = Sample{Record: rec, Elevation: elev, OK: ok}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return samples
}
