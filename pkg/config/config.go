// Package config loads imprint settings from a TOML file.
//
// Every field has a default, so a missing file yields a working
// configuration rooted at the current directory:
//
//	[paths]
//	templates = "templates.json"
//	fonts     = "fonts"
//	pictures  = "pictures"
//	output    = "output"
//
//	[render]
//	fallback_font = "sao.ttf"
//	format        = "png"
//	raster_dpi    = 300
//	image_dpi     = 100
//
//	[cache]
//	backend = "file"   # none, file or redis
//
//	[server]
//	addr = "127.0.0.1:8000"
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/fonts"
)

// EnvPath names the environment variable that points at the config file.
const EnvPath = "IMPRINT_CONFIG"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "imprint.toml"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the full settings tree.
type Config struct {
	Paths  Paths  `toml:"paths"`
	Render Render `toml:"render"`
	Batch  Batch  `toml:"batch"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
	Report Report `toml:"report"`

	// File is the path the config was read from; empty for defaults.
	File string `toml:"-"`
}

// Paths locates the input and output directories.
type Paths struct {
	Templates string `toml:"templates"`
	Fonts     string `toml:"fonts"`
	Pictures  string `toml:"pictures"`
	Output    string `toml:"output"`
}

// Render holds assembler settings.
type Render struct {
	FallbackFont string  `toml:"fallback_font"`
	Format       string  `toml:"format"`
	RasterDPI    float64 `toml:"raster_dpi"`
	ImageDPI     float64 `toml:"image_dpi"`
	SystemFonts  bool    `toml:"system_fonts"`
	PopplerBin   string  `toml:"poppler_bin"`
}

// Batch holds batch runner settings.
type Batch struct {
	Workers int      `toml:"workers"`
	Timeout Duration `toml:"timeout"` // per remote item
}

// Cache selects the artifact cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"` // empty: XDG cache dir
	Prefix        string `toml:"prefix"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Report selects where batch summaries are stored.
type Report struct {
	File            bool   `toml:"file"` // write {output}/reports/{id}.json
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Duration is a time.Duration written as a string ("20s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			Templates: "templates.json",
			Fonts:     "fonts",
			Pictures:  "pictures",
			Output:    "output",
		},
		Render: Render{
			FallbackFont: fonts.DefaultFallback,
			Format:       string(document.FormatPNG),
			RasterDPI:    300,
			ImageDPI:     100,
		},
		Batch: Batch{
			Workers: 1,
			Timeout: Duration{20 * time.Second},
		},
		Cache: Cache{
			Backend:   CacheFile,
			RedisAddr: "127.0.0.1:6379",
		},
		Server: Server{Addr: "127.0.0.1:8000"},
		Report: Report{
			File:            true,
			MongoDatabase:   "imprint",
			MongoCollection: "batches",
		},
	}
}

// Locate returns the config path to use: flag, then $IMPRINT_CONFIG, then
// ./imprint.toml if it exists. An empty result means built-in defaults.
func Locate(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Load reads path over the defaults. An empty path returns Default().
// A named file that does not exist is a CONFIGURATION_ERROR.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfiguration, err, "read config %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, errors.New(errors.ErrCodeConfiguration, "unknown config key %q in %s", undec[0].String(), path)
	}
	cfg.File = path
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve makes relative paths relative to base.
func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.Paths.Templates, &c.Paths.Fonts, &c.Paths.Pictures, &c.Paths.Output, &c.Cache.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	if _, err := document.ParseFormat(c.Render.Format); err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "render.format")
	}
	if c.Render.RasterDPI <= 0 || c.Render.ImageDPI <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "render dpi must be positive")
	}
	if c.Batch.Workers < 1 {
		return errors.New(errors.ErrCodeConfiguration, "batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile, CacheRedis:
	default:
		return errors.New(errors.ErrCodeConfiguration, "cache.backend must be none, file or redis, got %q", c.Cache.Backend)
	}
	if c.Paths.Output == "" {
		return errors.New(errors.ErrCodeConfiguration, "paths.output is required")
	}
	return nil
}

// ReportDir is where file reports are written.
func (c Config) ReportDir() string {
	return filepath.Join(c.Paths.Output, "reports")
}
