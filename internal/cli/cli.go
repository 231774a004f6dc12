// Package cli implements the imprint command-line interface.
//
// # Commands
//
//   - render: composite one request locally
//   - batch: run a file of requests locally or against a server
//   - submit: send one request to a running server
//   - serve: expose the assembler over HTTP
//   - templates, fonts: list what the registry and font store provide
//   - cache: inspect or clear the artifact cache
//
// Settings come from a TOML file (see pkg/config) located through
// --config, $IMPRINT_CONFIG or ./imprint.toml. All commands support
// --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imprint/pkg/buildinfo"
	"github.com/matzehuels/imprint/pkg/cache"
	"github.com/matzehuels/imprint/pkg/config"
	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/fonts"
	"github.com/matzehuels/imprint/pkg/page"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/template"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "imprint"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Imprint composites text onto template images and assembles documents",
		Long:         `Imprint draws personalized text onto template images or base document pages and writes the result as PNG, JPEG or multi-page PDF, one request at a time or in batches.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				registerLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+config.EnvPath+" or ./"+config.DefaultFile+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.submitCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	path := config.Locate(c.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Assembler Factory
// =============================================================================

// assemblerOpts holds per-command overrides of configured values.
type assemblerOpts struct {
	noCache bool
	refresh bool
	output  string
}

// newAssembler wires the registry, font store, cache and rasterizer from
// config. The returned close function releases the cache.
func (c *CLI) newAssembler(ctx context.Context, o assemblerOpts) (*pipeline.Assembler, func(), error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	if o.output != "" {
		cfg.Paths.Output = o.output
	}

	reg, err := template.LoadOrEmpty(cfg.Paths.Templates, c.Logger)
	if err != nil {
		c.Logger.Error("template registry unavailable, every request will fail", "err", err)
	} else {
		c.Logger.Debug("loaded templates", "count", reg.Len(), "file", cfg.Paths.Templates)
	}

	storeOpts := []fonts.StoreOption{fonts.WithLogger(c.Logger)}
	if cfg.Render.SystemFonts {
		storeOpts = append(storeOpts, fonts.WithSystemFonts())
	}
	store, err := fonts.NewStore(cfg.Paths.Fonts, storeOpts...)
	if err != nil {
		c.Logger.Warn("font directory unavailable", "dir", cfg.Paths.Fonts, "err", err)
	}

	ch, err := c.newCache(ctx, cfg, o.noCache)
	if err != nil {
		return nil, nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix)
	}

	asm := pipeline.NewAssembler(reg, store, pipeline.Options{
		Pictures:      cfg.Paths.Pictures,
		Output:        cfg.Paths.Output,
		FallbackFont:  cfg.Render.FallbackFont,
		DefaultFormat: document.Format(cfg.Render.Format),
		RasterDPI:     cfg.Render.RasterDPI,
		ImageDPI:      cfg.Render.ImageDPI,
		Refresh:       o.refresh,
		Rasterizer:    page.Poppler{Bin: cfg.Render.PopplerBin},
		Cache:         ch,
		Keyer:         keyer,
		Logger:        c.Logger,
	})
	if err := asm.Options().Validate(); err != nil {
		ch.Close()
		return nil, nil, err
	}
	return asm, func() { ch.Close() }, nil
}

// newCache opens the configured artifact cache. An unusable file cache
// degrades to no cache; an unreachable Redis is an error.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return rc, nil
	case config.CacheFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("artifact cache disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
	return cache.NewNullCache(), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/imprint/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// ExitCode maps a command error to a process exit status: 0 on success,
// 2 for bad input or configuration, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeConfiguration, errors.ErrCodeInvalidRequest, errors.ErrCodeInvalidPath:
		return 2
	}
	return 1
}
