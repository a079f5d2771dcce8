// Package config provides configuration loading and management for Chronicler.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Chronicler configuration
type Config struct {
	Chunking Chunking `yaml:"chunking"`
	Extract  Extract  `yaml:"extract"`
	Matcher  Matcher  `yaml:"matcher"`
	Merge    Merge    `yaml:"merge"`
	Review   Review   `yaml:"review"`
	Chapters Chapters `yaml:"chapters"`
	NATS     NATS     `yaml:"nats"`
}

// Chunking bounds the size of text chunks sent to the model.
type Chunking struct {
	// SoftLimit is the chunk size at which a paragraph boundary closes the chunk.
	SoftLimit int `yaml:"soft_limit"`
	// HardLimit caps how far past the soft limit a chunk may grow while
	// appending paragraphs. A single paragraph longer than the limit is
	// still kept whole in its own chunk.
	HardLimit int `yaml:"hard_limit"`
}

// Extract caps prompt and response sizes for the extraction stages.
type Extract struct {
	// MaxKnownPersons bounds the known-person list included in prompts.
	MaxKnownPersons int `yaml:"max_known_persons"`
	// MaxKnownPlaces bounds the known-place list included in prompts.
	MaxKnownPlaces int `yaml:"max_known_places"`
	// MaxEventsPerChunk bounds how many events the model is asked for per chunk.
	MaxEventsPerChunk int `yaml:"max_events_per_chunk"`
	// MaxCompletionNames bounds the entity name list sent for completion.
	MaxCompletionNames int `yaml:"max_completion_names"`
	// MaxCompletedPersons bounds persons accepted from a completion response.
	MaxCompletedPersons int `yaml:"max_completed_persons"`
	// MaxCompletedPlaces bounds places accepted from a completion response.
	MaxCompletedPlaces int `yaml:"max_completed_places"`
}

// Matcher configures duplicate candidate scoring.
type Matcher struct {
	// ExactNameWeight is added when normalized names match exactly.
	ExactNameWeight float64 `yaml:"exact_name_weight"`
	// AliasWeight is added when alias sets overlap.
	AliasWeight float64 `yaml:"alias_weight"`
	// TimeWeight scales the temporal overlap ratio.
	TimeWeight float64 `yaml:"time_weight"`
	// Gate is the minimum score for a candidate to reach arbitration.
	Gate float64 `yaml:"gate"`
}

// Merge configures merge arbitration.
type Merge struct {
	// ConfidenceThreshold is the minimum arbiter confidence to commit a merge.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Review configures approval batch processing.
type Review struct {
	// ErrorSampleSize bounds how many per-item errors a batch result carries.
	ErrorSampleSize int `yaml:"error_sample_size"`
}

// Chapters configures chapter file ingestion.
type Chapters struct {
	// Dir is the directory watched for chapter files.
	Dir string `yaml:"dir"`
	// DebounceInterval is how long to wait after the last write event
	// before processing a changed file.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// NATS configures the NATS connection backing entity storage.
type NATS struct {
	// URL is the NATS server URL.
	URL string `yaml:"url"`
	// BucketPrefix namespaces the KV buckets, allowing several
	// chronicles to share one server.
	BucketPrefix string `yaml:"bucket_prefix"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chunking: Chunking{
			SoftLimit: 12000,
			HardLimit: 20000,
		},
		Extract: Extract{
			MaxKnownPersons:     100,
			MaxKnownPlaces:      50,
			MaxEventsPerChunk:   30,
			MaxCompletionNames:  80,
			MaxCompletedPersons: 40,
			MaxCompletedPlaces:  40,
		},
		Matcher: Matcher{
			ExactNameWeight: 0.6,
			AliasWeight:     0.5,
			TimeWeight:      0.3,
			Gate:            0.5,
		},
		Merge: Merge{
			ConfidenceThreshold: 0.70,
		},
		Review: Review{
			ErrorSampleSize: 10,
		},
		Chapters: Chapters{
			Dir:              "chapters",
			DebounceInterval: 2 * time.Second,
		},
		NATS: NATS{
			URL:          "nats://localhost:4222",
			BucketPrefix: "chronicle",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Chunking.SoftLimit <= 0 {
		return fmt.Errorf("chunking.soft_limit must be positive")
	}
	if c.Chunking.HardLimit < c.Chunking.SoftLimit {
		return fmt.Errorf("chunking.hard_limit must be >= chunking.soft_limit")
	}
	if c.Matcher.Gate < 0 || c.Matcher.Gate > 1 {
		return fmt.Errorf("matcher.gate must be between 0 and 1")
	}
	if c.Merge.ConfidenceThreshold < 0 || c.Merge.ConfidenceThreshold > 1 {
		return fmt.Errorf("merge.confidence_threshold must be between 0 and 1")
	}
	if c.Extract.MaxEventsPerChunk <= 0 {
		return fmt.Errorf("extract.max_events_per_chunk must be positive")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFrom merges another config into this one (other takes precedence for non-zero values)
func (c *Config) MergeFrom(other *Config) {
	if other == nil {
		return
	}

	// Chunking
	if other.Chunking.SoftLimit != 0 {
		c.Chunking.SoftLimit = other.Chunking.SoftLimit
	}
	if other.Chunking.HardLimit != 0 {
		c.Chunking.HardLimit = other.Chunking.HardLimit
	}

	// Extract
	if other.Extract.MaxKnownPersons != 0 {
		c.Extract.MaxKnownPersons = other.Extract.MaxKnownPersons
	}
	if other.Extract.MaxKnownPlaces != 0 {
		c.Extract.MaxKnownPlaces = other.Extract.MaxKnownPlaces
	}
	if other.Extract.MaxEventsPerChunk != 0 {
		c.Extract.MaxEventsPerChunk = other.Extract.MaxEventsPerChunk
	}
	if other.Extract.MaxCompletionNames != 0 {
		c.Extract.MaxCompletionNames = other.Extract.MaxCompletionNames
	}
	if other.Extract.MaxCompletedPersons != 0 {
		c.Extract.MaxCompletedPersons = other.Extract.MaxCompletedPersons
	}
	if other.Extract.MaxCompletedPlaces != 0 {
		c.Extract.MaxCompletedPlaces = other.Extract.MaxCompletedPlaces
	}

	// Matcher
	if other.Matcher.ExactNameWeight != 0 {
		c.Matcher.ExactNameWeight = other.Matcher.ExactNameWeight
	}
	if other.Matcher.AliasWeight != 0 {
		c.Matcher.AliasWeight = other.Matcher.AliasWeight
	}
	if other.Matcher.TimeWeight != 0 {
		c.Matcher.TimeWeight = other.Matcher.TimeWeight
	}
	if other.Matcher.Gate != 0 {
		c.Matcher.Gate = other.Matcher.Gate
	}

	// Merge arbitration
	if other.Merge.ConfidenceThreshold != 0 {
		c.Merge.ConfidenceThreshold = other.Merge.ConfidenceThreshold
	}

	// Review
	if other.Review.ErrorSampleSize != 0 {
		c.Review.ErrorSampleSize = other.Review.ErrorSampleSize
	}

	// Chapters
	if other.Chapters.Dir != "" {
		c.Chapters.Dir = other.Chapters.Dir
	}
	if other.Chapters.DebounceInterval != 0 {
		c.Chapters.DebounceInterval = other.Chapters.DebounceInterval
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.BucketPrefix != "" {
		c.NATS.BucketPrefix = other.NATS.BucketPrefix
	}
}
