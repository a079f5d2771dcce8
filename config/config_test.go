package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.SoftLimit != 12000 {
		t.Errorf("expected soft limit 12000, got %d", cfg.Chunking.SoftLimit)
	}
	if cfg.Chunking.HardLimit != 20000 {
		t.Errorf("expected hard limit 20000, got %d", cfg.Chunking.HardLimit)
	}
	if cfg.Extract.MaxEventsPerChunk != 30 {
		t.Errorf("expected max events per chunk 30, got %d", cfg.Extract.MaxEventsPerChunk)
	}
	if cfg.Matcher.Gate != 0.5 {
		t.Errorf("expected matcher gate 0.5, got %f", cfg.Matcher.Gate)
	}
	if cfg.Merge.ConfidenceThreshold != 0.70 {
		t.Errorf("expected merge threshold 0.70, got %f", cfg.Merge.ConfidenceThreshold)
	}
	if cfg.NATS.URL == "" {
		t.Error("expected default NATS URL")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero soft limit",
			modify:  func(c *Config) { c.Chunking.SoftLimit = 0 },
			wantErr: true,
		},
		{
			name:    "hard limit below soft limit",
			modify:  func(c *Config) { c.Chunking.HardLimit = c.Chunking.SoftLimit - 1 },
			wantErr: true,
		},
		{
			name:    "gate above 1",
			modify:  func(c *Config) { c.Matcher.Gate = 1.1 },
			wantErr: true,
		},
		{
			name:    "negative merge threshold",
			modify:  func(c *Config) { c.Merge.ConfidenceThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "zero events per chunk",
			modify:  func(c *Config) { c.Extract.MaxEventsPerChunk = 0 },
			wantErr: true,
		},
		{
			name:    "missing NATS URL",
			modify:  func(c *Config) { c.NATS.URL = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
chunking:
  soft_limit: 8000
  hard_limit: 16000
matcher:
  gate: 0.6
chapters:
  dir: "/data/chapters"
  debounce_interval: 5s
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Chunking.SoftLimit != 8000 {
		t.Errorf("expected soft limit 8000, got %d", cfg.Chunking.SoftLimit)
	}
	if cfg.Chunking.HardLimit != 16000 {
		t.Errorf("expected hard limit 16000, got %d", cfg.Chunking.HardLimit)
	}
	if cfg.Matcher.Gate != 0.6 {
		t.Errorf("expected gate 0.6, got %f", cfg.Matcher.Gate)
	}
	if cfg.Chapters.Dir != "/data/chapters" {
		t.Errorf("expected chapters dir /data/chapters, got %s", cfg.Chapters.Dir)
	}
	if cfg.Chapters.DebounceInterval != 5*time.Second {
		t.Errorf("expected debounce 5s, got %v", cfg.Chapters.DebounceInterval)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	// Unset fields keep their defaults
	if cfg.Extract.MaxKnownPersons != 100 {
		t.Errorf("expected max known persons to remain 100, got %d", cfg.Extract.MaxKnownPersons)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Matcher: Matcher{
			Gate: 0.7,
		},
		Chapters: Chapters{
			Dir: "/override/chapters",
		},
	}

	base.MergeFrom(override)

	if base.Matcher.Gate != 0.7 {
		t.Errorf("expected gate 0.7, got %f", base.Matcher.Gate)
	}
	// Weights should remain from base since override didn't set them
	if base.Matcher.ExactNameWeight != 0.6 {
		t.Errorf("expected exact name weight to remain 0.6, got %f", base.Matcher.ExactNameWeight)
	}
	if base.Chapters.Dir != "/override/chapters" {
		t.Errorf("expected chapters dir /override/chapters, got %s", base.Chapters.Dir)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Matcher.Gate = 0.65

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Matcher.Gate != 0.65 {
		t.Errorf("expected gate 0.65, got %f", loaded.Matcher.Gate)
	}
}
