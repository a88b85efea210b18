// Package config loads the gfuncs project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/gothic-functions/signature"
)

// Config holds all configuration for a gfuncs data directory.
type Config struct {
	DataDir  string          `yaml:"data_dir"`
	Versions []VersionConfig `yaml:"versions"`
	Output   OutputConfig    `yaml:"output"`
	Store    StoreConfig     `yaml:"store"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// VersionConfig describes the input of one toolchain build.
type VersionConfig struct {
	Index  int      `yaml:"index"`  // 1-based slot in Signature.Addresses
	Name   string   `yaml:"name"`   // e.g. "G2A"
	Inputs []string `yaml:"inputs"` // doublestar patterns relative to DataDir
}

// OutputConfig holds output locations, relative to DataDir.
type OutputConfig struct {
	Errors   string `yaml:"errors"`
	JSON     string `yaml:"json"`
	Snippets string `yaml:"snippets"`
	Template string `yaml:"template"`
}

// StoreConfig holds record store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"` // empty logs to stderr
}

// DefaultVersionNames are the builds the address slots stand for.
var DefaultVersionNames = [signature.NumVersions]string{"G1", "G1A", "G2", "G2A"}

// DefaultConfig returns the default configuration, matching the
// Data/{Input,Error,Json,Snippet} layout.
func DefaultConfig() *Config {
	cfg := &Config{
		DataDir: "Data",
		Output: OutputConfig{
			Errors:   "Error",
			JSON:     "Json",
			Snippets: "Snippet",
			Template: "template.snippet",
		},
		Store: StoreConfig{
			Path: filepath.Join(".gfuncs", "index.db"),
		},
	}
	for i, name := range DefaultVersionNames {
		index := i + 1
		cfg.Versions = append(cfg.Versions, VersionConfig{
			Index:  index,
			Name:   name,
			Inputs: []string{filepath.ToSlash(filepath.Join("Input", strconv.Itoa(index)+".txt"))},
		})
	}
	return cfg
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads gfuncs.yaml or .gfuncs/config.yaml from dir, falling back
// to defaults. A relative DataDir is resolved against dir.
func LoadFromDir(dir string) (*Config, error) {
	cfg := DefaultConfig()
	for _, name := range []string{"gfuncs.yaml", filepath.Join(".gfuncs", "config.yaml")} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
			break
		}
	}

	cfg.Resolve(dir)
	return cfg, nil
}

// Resolve makes a relative DataDir and store path relative to dir.
func (c *Config) Resolve(dir string) {
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(dir, c.DataDir)
	}
	if !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(dir, c.Store.Path)
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks version indices and names.
func (c *Config) Validate() error {
	seen := make(map[int]bool)
	var errs []error
	for _, v := range c.Versions {
		if v.Index < 1 || v.Index > signature.NumVersions {
			errs = append(errs, fmt.Errorf("config: version %q: %w: %d", v.Name, signature.ErrInvalidVersion, v.Index))
			continue
		}
		if seen[v.Index] {
			errs = append(errs, fmt.Errorf("config: version index %d listed twice", v.Index))
		}
		seen[v.Index] = true
		if len(v.Inputs) == 0 {
			errs = append(errs, fmt.Errorf("config: version %d has no inputs", v.Index))
		}
	}
	return errors.Join(errs...)
}

// VersionName returns the configured name of a build index, or its number.
func (c *Config) VersionName(index int) string {
	for _, v := range c.Versions {
		if v.Index == index && v.Name != "" {
			return v.Name
		}
	}
	return strconv.Itoa(index)
}

// Path resolves a DataDir-relative path.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.DataDir, rel)
}

// EnsureDirs creates the output directories and the store's parent.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Output.Errors, c.Output.JSON, c.Output.Snippets} {
		if err := os.MkdirAll(c.Path(dir), 0755); err != nil {
			return err
		}
	}
	return os.MkdirAll(filepath.Dir(c.Store.Path), 0755)
}
