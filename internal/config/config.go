package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for the upload form, the prediction client
// and the reference backend.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Conditions ConditionsConfig `yaml:"conditions"`
	Upload     UploadConfig     `yaml:"upload"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BackendConfig points the form at a prediction service.
type BackendConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"` // pipeline, batch, upload
	// Aggregate collapses pipeline results by plastic type.
	Aggregate bool `yaml:"aggregate"`
}

// ConditionsConfig holds the environment sent with pipeline requests.
type ConditionsConfig struct {
	PH          float64 `yaml:"ph"`
	Temp        float64 `yaml:"temp"`
	ElapsedDays float64 `yaml:"elapsed_days"`
}

type UploadConfig struct {
	MaxRows         int  `yaml:"max_rows"`
	DetectDelimiter bool `yaml:"detect_delimiter"`
}

// ReferenceConfig configures the bundled prediction backend.
type ReferenceConfig struct {
	Addr        string `yaml:"addr"`
	MicrobialDB string `yaml:"microbial_db"` // empty uses the embedded table
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

var modes = []string{"pipeline", "batch", "upload"}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Backend: BackendConfig{
			URL:       "http://127.0.0.1:5000",
			Mode:      "pipeline",
			Aggregate: true,
		},
		Conditions: ConditionsConfig{
			PH:          7.0,
			Temp:        30,
			ElapsedDays: 30,
		},
		Upload:    UploadConfig{MaxRows: 10000},
		Reference: ReferenceConfig{Addr: ":5000"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("SPECTRA_BACKEND_URL"); url != "" {
		c.Backend.URL = url
	}
	if mode := os.Getenv("SPECTRA_BACKEND_MODE"); mode != "" {
		c.Backend.Mode = strings.ToLower(mode)
	}
	if addr := os.Getenv("SPECTRA_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("SPECTRA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	known := false
	for _, m := range modes {
		if c.Backend.Mode == m {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("backend.mode %q must be one of %s", c.Backend.Mode, strings.Join(modes, ", "))
	}
	if c.Upload.MaxRows < 0 {
		return fmt.Errorf("upload.max_rows must not be negative")
	}
	if c.Conditions.ElapsedDays < 0 {
		return fmt.Errorf("conditions.elapsed_days must not be negative")
	}
	return nil
}
