package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/crawl"
	"github.com/fwojciec/rangegrab/redis"
	"gopkg.in/yaml.v2"
)

// Config is the optional YAML configuration. Command-line flags take
// precedence over any value set here.
type Config struct {
	Tracker    string `yaml:"tracker"`
	Downloader string `yaml:"downloader"`
	Version    string `yaml:"version"`
	Bucket     string `yaml:"bucket"`

	DataDir   string `yaml:"data_dir"`
	ReportDir string `yaml:"report_dir"`
	WorkDir   string `yaml:"work_dir"`
	Database  string `yaml:"database"`

	Redis redis.Config         `yaml:"redis"`
	Exit  rangegrab.ExitPolicy `yaml:"exit"`
	Retry crawl.RetryPolicy    `yaml:"retry"`
	Fetch FetchConfig          `yaml:"fetch"`
}

// FetchConfig configures the wget-lua subprocess.
type FetchConfig struct {
	Program     string   `yaml:"program"`
	UserAgent   string   `yaml:"user_agent"`
	LuaScript   string   `yaml:"lua_script"`
	URLTemplate string   `yaml:"url_template"`
	WARCHeaders []string `yaml:"warc_headers"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Version:   "dev",
		DataDir:   "data",
		ReportDir: "report",
		WorkDir:   os.TempDir(),
		Database:  "rangegrab.db",
		Redis:     redis.Config{URL: "redis://localhost:6379/0"},
		Exit:      rangegrab.DefaultExitPolicy,
		Retry:     crawl.DefaultRetryPolicy(),
	}
}

// LoadConfig reads a YAML config file over the defaults. Environment
// variables in the file are expanded before parsing.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Exit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// override returns flag if it is set and fallback otherwise.
func override(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
