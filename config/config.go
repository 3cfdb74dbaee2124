// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docsift/docsift/varscan"
)

// Config is the full service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DataDir holds the database and upload directory by default.
	DataDir   string `yaml:"data_dir"`
	UploadDir string `yaml:"upload_dir"`
	DBPath    string `yaml:"db_path"`
	// MaxUploadSize bounds uploads in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size"`
	// AllowedTypes lists accepted file extensions.
	AllowedTypes []string `yaml:"allowed_types"`
	// Patterns are the placeholder delimiter styles to scan for.
	// Empty means the built-in set.
	Patterns []varscan.Pattern `yaml:"patterns"`

	Similarity Similarity `yaml:"similarity"`
	Queue      Queue      `yaml:"queue"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Similarity tunes the analysis engine.
type Similarity struct {
	Threshold      float64 `yaml:"threshold"`
	MaxComparisons int     `yaml:"max_comparisons"`
	SampleSize     int     `yaml:"sample_size"`
	MinPhraseLen   int     `yaml:"min_phrase_len"`
	MaxPhrases     int     `yaml:"max_phrases"`
}

// Queue tunes the background coordinator.
type Queue struct {
	Workers   int      `yaml:"workers"`
	BatchSize int      `yaml:"batch_size"`
	Timeout   Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "docsift.db")
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = 50 << 20
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = []string{"pdf", "docx"}
	}
	if len(c.Patterns) == 0 {
		c.Patterns = varscan.BuiltinPatterns()
	}
	if c.Similarity.Threshold <= 0 {
		c.Similarity.Threshold = 0.8
	}
	if c.Similarity.MaxComparisons <= 0 {
		c.Similarity.MaxComparisons = 10000
	}
	if c.Similarity.SampleSize <= 0 {
		c.Similarity.SampleSize = 1000
	}
	if c.Similarity.MinPhraseLen <= 0 {
		c.Similarity.MinPhraseLen = 30
	}
	if c.Similarity.MaxPhrases <= 0 {
		c.Similarity.MaxPhrases = 20
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 4
	}
	if c.Queue.BatchSize <= 0 {
		c.Queue.BatchSize = 10
	}
	if c.Queue.Timeout <= 0 {
		c.Queue.Timeout = Duration(2 * time.Minute)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads the YAML file at path (a missing file is fine), applies
// environment overrides, then defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// config file is optional
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	c.applyEnv()
	c.defaults()
	return &c, nil
}

// applyEnv overlays DOCSIFT_* environment variables on top of the file
// values.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCSIFT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DOCSIFT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DOCSIFT_UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("DOCSIFT_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("DOCSIFT_MAX_UPLOAD_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadSize = n
		}
	}
	if v := os.Getenv("DOCSIFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.Workers = n
		}
	}
	if v := os.Getenv("DOCSIFT_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Similarity.Threshold = f
		}
	}
	if v := os.Getenv("DOCSIFT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// TypeAllowed reports whether ext (without dot) is an accepted upload
// type.
func (c *Config) TypeAllowed(ext string) bool {
	for _, t := range c.AllowedTypes {
		if t == ext {
			return true
		}
	}
	return false
}
