// Package config loads and validates flowsight configuration from
// YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"flowsight/internal/locator"
)

// ErrConfiguration marks an invalid include/exclude or inference
// specification. It is the only fatal error class and is raised before
// any file I/O.
var ErrConfiguration = errors.New("invalid configuration")

// Detect toggles which scanner categories run.
type Detect struct {
	Database   bool `yaml:"database"`
	API        bool `yaml:"api"`
	FileIO     bool `yaml:"file_io"`
	Messages   bool `yaml:"messages"`
	Transforms bool `yaml:"transforms"`
	Cache      bool `yaml:"cache"`
	UITriggers bool `yaml:"ui_triggers"`
}

// EdgeInference configures the two-phase inference run.
type EdgeInference struct {
	Enabled         bool `yaml:"enabled"`
	ProximityEdges  bool `yaml:"proximity_edges"`
	DataFlowEdges   bool `yaml:"data_flow_edges"`
	MaxLineDistance int  `yaml:"max_line_distance"`
	DataFlowWindow  int  `yaml:"data_flow_window"`
}

// Config holds all engine configuration.
type Config struct {
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludeDirs       []string `yaml:"exclude_dirs"`
	ExcludePatterns   []string `yaml:"exclude_patterns"`

	Detect        Detect        `yaml:"detect"`
	EdgeInference EdgeInference `yaml:"edge_inference"`

	RenderNodeCeiling int   `yaml:"render_node_ceiling"`
	MaxFileSize       int64 `yaml:"max_file_size"`

	// Workers is the scan worker pool size. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		IncludeExtensions: []string{
			".cs", ".razor", ".cshtml", ".xaml",
			".ts", ".tsx", ".js", ".jsx", ".mjs", ".html", ".vue",
		},
		ExcludeDirs:     nil, // locator defaults apply
		ExcludePatterns: nil,
		Detect: Detect{
			Database:   true,
			API:        true,
			FileIO:     true,
			Messages:   true,
			Transforms: true,
			Cache:      true,
			UITriggers: true,
		},
		EdgeInference: EdgeInference{
			Enabled:         true,
			ProximityEdges:  true,
			DataFlowEdges:   true,
			MaxLineDistance: 20,
			DataFlowWindow:  50,
		},
		RenderNodeCeiling: 5000,
		MaxFileSize:       locator.DefaultMaxFileSize,
	}
}

func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowsight/config.yaml"
	}
	return filepath.Join(home, ".flowsight", "config.yaml")
}

func projectConfigPath() string {
	return ".flowsight/config.yaml"
}

// Load reads configuration with the following priority (highest to
// lowest): project config, environment variables, global config,
// defaults.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(globalConfigPath()); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", globalConfigPath(), err)
		}
	}
	if data, err := os.ReadFile(projectConfigPath()); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", projectConfigPath(), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLOWSIGHT_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("FLOWSIGHT_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("FLOWSIGHT_RENDER_CEILING"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.RenderNodeCeiling = i
		}
	}
	if v := os.Getenv("FLOWSIGHT_MAX_LINE_DISTANCE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.EdgeInference.MaxLineDistance = i
		}
	}
	if v := os.Getenv("FLOWSIGHT_MAX_FILE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxFileSize = int64(i)
		}
	}
}

// Validate checks the configuration before any file I/O. Every failure
// wraps ErrConfiguration so callers can distinguish the fatal class
// from recovered scan errors.
func (c *Config) Validate() error {
	for _, ext := range c.IncludeExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: include extension %q must start with a dot", ErrConfiguration, ext)
		}
	}
	for _, dir := range c.ExcludeDirs {
		if strings.ContainsAny(dir, "/\\") {
			return fmt.Errorf("%w: exclude dir %q must be a bare directory name, not a path", ErrConfiguration, dir)
		}
	}
	opts := locator.Options{ExcludePatterns: c.ExcludePatterns}
	if err := opts.ValidatePatterns(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if c.EdgeInference.MaxLineDistance <= 0 {
		return fmt.Errorf("%w: max_line_distance must be positive", ErrConfiguration)
	}
	if c.EdgeInference.DataFlowWindow <= 0 {
		return fmt.Errorf("%w: data_flow_window must be positive", ErrConfiguration)
	}
	if c.RenderNodeCeiling <= 0 {
		return fmt.Errorf("%w: render_node_ceiling must be positive", ErrConfiguration)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max_file_size must be positive", ErrConfiguration)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative", ErrConfiguration)
	}
	return nil
}

func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
