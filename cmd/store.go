package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/SoleneDerville/occurrence-atlas/internal/loader"
	"github.com/SoleneDerville/occurrence-atlas/internal/store"
)

// openStore creates the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store

	switch cfg.Store.Driver {
	case "", "sqlite":
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// loaderOptions builds loader options from config, letting a non-empty
// delimiter flag override the configured one.
func loaderOptions(delimiter string) loader.Options {
	d := delimiter
	if d == "" {
		d = cfg.Loader.Delimiter
	}
	var comma rune
	for _, r := range d {
		comma = r
		break
	}
	return loader.Options{Delimiter: comma, Encoding: cfg.Loader.Encoding, ColumnMap: cfg.Loader.ColumnMap}
}
