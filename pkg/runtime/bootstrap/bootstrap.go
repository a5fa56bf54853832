// Package bootstrap assembles the explorer stack from a loaded configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/de-tools/realty-atlas/pkg/services/config"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/de-tools/realty-atlas/pkg/services/fetcher"
	"github.com/de-tools/realty-atlas/pkg/services/region"
	"github.com/de-tools/realty-atlas/pkg/services/report"
	"github.com/de-tools/realty-atlas/pkg/store/duckdb"
	duckdbsummary "github.com/de-tools/realty-atlas/pkg/store/duckdb/summary"
	duckdbtrades "github.com/de-tools/realty-atlas/pkg/store/duckdb/trades"
	duckdbworkflow "github.com/de-tools/realty-atlas/pkg/store/duckdb/workflow"
	"github.com/rs/zerolog"
)

type Runtime struct {
	Directory *region.Directory
	Explorer  explorer.Explorer
	Profile   *config.Profile
	// Jobs and Cache are nil unless a DuckDB database is in use.
	Jobs  duckdbworkflow.Store
	Cache duckdbtrades.Store

	db *sql.DB
}

type Options struct {
	// HTTPClient overrides the client used against the transaction portal.
	HTTPClient *http.Client
}

func Build(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	logger := zerolog.Ctx(ctx)

	dir, err := loadDirectory(cfg.RegionsFile)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("regions", dir.Len()).Str("source", cfg.RegionsFile).Msg("region directory loaded")

	profile, err := resolveProfile(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var clientOpts []fetcher.ClientOption
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, fetcher.WithHTTPClient(opts.HTTPClient))
	}
	client, err := fetcher.NewClient(cfg.ClientConfig(profile), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction client: %w", err)
	}

	rt := &Runtime{Directory: dir, Profile: profile}
	var (
		source  fetcher.Fetcher = client
		counter report.Counter
	)

	if cfg.Engine == config.EngineDuckDB || cfg.DBPath != "" {
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = duckdb.MemoryPath
		}
		rt.db, err = duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		logger.Debug().Str("path", dbPath).Msg("duckdb opened")

		if rt.Jobs, err = duckdbworkflow.NewStore(rt.db); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to create job store: %w", err)
		}
		if cfg.Cache {
			if rt.Cache, err = duckdbtrades.NewStore(rt.db); err != nil {
				_ = rt.Close()
				return nil, fmt.Errorf("failed to create trade cache: %w", err)
			}
			source = fetcher.NewCachingFetcher(client, rt.Cache)
		}
	}
	if cfg.Engine == config.EngineDuckDB {
		store, err := duckdbsummary.NewStore(rt.db)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to create summary store: %w", err)
		}
		counter = store
		logger.Debug().Msg("summaries computed with duckdb")
	}

	rt.Explorer, err = explorer.NewExplorer(dir, source, explorer.Options{
		Concurrency: cfg.Concurrency,
		Counter:     counter,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) Close() error {
	if rt.db == nil {
		return nil
	}
	return rt.db.Close()
}

func loadDirectory(path string) (*region.Directory, error) {
	if path == "" {
		return region.Default()
	}
	return region.Load(path)
}

// resolveProfile reads the credentials file unless a service key is configured directly.
func resolveProfile(ctx context.Context, cfg *config.Config) (*config.Profile, error) {
	if cfg.ServiceKey != "" {
		return nil, nil
	}

	registry, err := config.NewRegistry(cfg.ProfileFile)
	if err != nil {
		return nil, fmt.Errorf("no service key configured: set %s_SERVICE_KEY or create a profile: %w",
			config.EnvPrefix, err)
	}
	profile, err := registry.GetProfile(ctx, cfg.Profile)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("profile", profile.Name).Msg("using credentials profile")
	return profile, nil
}
