package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultKey is the configuration service key holding the stack.
	DefaultKey = "lxd-stack"

	// DefaultCacheSeconds is how long fetched values stay fresh.
	DefaultCacheSeconds = 300

	// DefaultFile is the local configuration file consulted for defaults.
	DefaultFile = "/etc/lxstack/config.yaml"
)

// Options are the settings for reaching the configuration service. They can
// come from a local configuration file, from CLI flags, or both; flags win.
type Options struct {
	// URL is the base URL of the configuration service.
	URL string `yaml:"url" validate:"required,url"`

	// Levels are the lookup path levels, most specific last. Keys are
	// resolved deepest-first so a project/stage pair can override a global
	// default.
	Levels []string `yaml:"levels" validate:"dive,required"`

	// CacheSeconds is the cache duration for fetched values.
	CacheSeconds int `yaml:"cache" validate:"gte=0"`

	// Key is the service key holding the stack document.
	Key string `yaml:"key" validate:"required"`
}

// LoadFile reads options from a local YAML configuration file. A missing
// file is not an error; it yields zero options.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Options{}, nil
	}
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return opts, nil
}

// Merge fills o's unset fields from fallback and returns the result.
func (o Options) Merge(fallback Options) Options {
	if o.URL == "" {
		o.URL = fallback.URL
	}
	if len(o.Levels) == 0 {
		o.Levels = fallback.Levels
	}
	if o.CacheSeconds == 0 {
		o.CacheSeconds = fallback.CacheSeconds
	}
	if o.Key == "" {
		o.Key = fallback.Key
	}
	return o
}

// Validate checks the options are complete enough to fetch with.
func (o Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return fmt.Errorf("config: invalid options: %w", err)
	}
	return nil
}
