package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ernie/skin-inspect/internal/assets"
	"github.com/ernie/skin-inspect/internal/catalog"
	"github.com/ernie/skin-inspect/internal/config"
	"github.com/ernie/skin-inspect/internal/pipeline"
	"github.com/ernie/skin-inspect/internal/store"
)

var (
	flagConfig         string
	flagBaseURL        string
	flagArchive        string
	flagCatalog        string
	flagCacheDB        string
	flagProbeTimeout   time.Duration
	flagMaxTextureSize int
	flagNoTypo         bool
	flagVerbose        bool
	flagJSON           bool
)

var rootCmd = &cobra.Command{
	Use:   "skininspect",
	Short: "Resolve inspected weapon skins into render materials",
	Long: `skininspect turns an inspected item (display name, paint index, wear) into
the mesh, texture set and shading parameters needed to render it.

Assets come from an HTTP asset server (--base-url) or from local zip
archives (--archive). Settings are read from --config, then SKIN_* environment
variables (a .env file is loaded outside production), then flags.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "skininspect.yaml", "Path to the YAML config file")
	pf.StringVar(&flagBaseURL, "base-url", "", "Asset server base URL")
	pf.StringVar(&flagArchive, "archive", "", "Zip archive, or directory of archives, to read assets from instead of HTTP")
	pf.StringVar(&flagCatalog, "catalog", "", "Catalog dataset YAML (default: built-in dataset)")
	pf.StringVar(&flagCacheDB, "cache-db", "", "SQLite file caching fetched assets")
	pf.DurationVar(&flagProbeTimeout, "probe-timeout", 0, "Timeout for each candidate fetch")
	pf.IntVar(&flagMaxTextureSize, "max-texture-size", 0, "Downscale textures larger than this (0 keeps config value)")
	pf.BoolVar(&flagNoTypo, "no-typo", false, "Disable typo-tolerant pattern matching")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log each candidate probe")
	pf.BoolVar(&flagJSON, "json", false, "Always print JSON, even on a terminal")
}

// loadConfig layers flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.AssetBaseURL = flagBaseURL
	}
	if flags.Changed("archive") {
		cfg.AssetArchive = flagArchive
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = flagCatalog
	}
	if flags.Changed("cache-db") {
		cfg.CacheDB = flagCacheDB
	}
	if flags.Changed("probe-timeout") {
		cfg.ProbeTimeout = flagProbeTimeout
	}
	if flags.Changed("max-texture-size") {
		cfg.MaxTextureSize = flagMaxTextureSize
	}
	if flagNoTypo {
		cfg.TypoTolerance = false
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	ds := catalog.DefaultDataset()
	if cfg.CatalogPath != "" {
		var err error
		if ds, err = catalog.LoadDataset(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}
	return catalog.New(ds, catalog.WithTypoTolerance(cfg.TypoTolerance)), nil
}

// openFetcher builds the asset source. The returned closer releases
// archives and the cache database.
func openFetcher(cfg config.Config) (assets.Fetcher, func(), error) {
	var fetcher assets.Fetcher
	var closers []func() error

	switch {
	case cfg.AssetArchive != "":
		paths := []string{cfg.AssetArchive}
		if info, err := os.Stat(cfg.AssetArchive); err == nil && info.IsDir() {
			if paths, err = assets.CollectArchives(cfg.AssetArchive); err != nil {
				return nil, nil, err
			}
		}
		af, err := assets.OpenArchives(paths...)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Verbose {
			log.Printf("Serving %d assets from %d archive(s)", len(af.Paths()), len(paths))
		}
		fetcher = af
		closers = append(closers, af.Close)
	case cfg.AssetBaseURL != "":
		hf := assets.NewHTTPFetcher(cfg.AssetBaseURL)
		if cfg.AssetTokenSecret != "" {
			hf.TokenSecret = []byte(cfg.AssetTokenSecret)
		}
		fetcher = hf
	default:
		return nil, nil, fmt.Errorf("no asset source: set asset_base_url or asset_archive")
	}

	if cfg.CacheDB != "" {
		s, err := store.Open(cfg.CacheDB, fetcher)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		fetcher = s
		closers = append(closers, s.Close)
	}

	return fetcher, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Printf("Warning: close: %v", err)
			}
		}
	}, nil
}

// newResolver wires the full pipeline from config.
func newResolver(cmd *cobra.Command) (*pipeline.Resolver, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	fetcher, closeFn, err := openFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	r := pipeline.NewResolver(cat, fetcher, nil, pipeline.Options{
		ProbeTimeout:   cfg.ProbeTimeout,
		MaxTextureSize: cfg.MaxTextureSize,
		Verbose:        cfg.Verbose,
	})
	return r, closeFn, nil
}

// newPlanner wires a resolver with no asset source, for commands that
// never fetch.
func newPlanner(cmd *cobra.Command) (*pipeline.Resolver, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	noFetch := assets.FetcherFunc(func(_ context.Context, p string) (*assets.Asset, error) {
		return nil, fmt.Errorf("%w: %s", assets.ErrNotFound, p)
	})
	return pipeline.NewResolver(cat, noFetch, nil, pipeline.Options{Verbose: cfg.Verbose}), nil
}
