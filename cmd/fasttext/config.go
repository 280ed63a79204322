package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the fasttext configuration file (~/.config/fasttext/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Model defaults
	Dim           *int64   `yaml:"dim"`
	InputSize     *int64   `yaml:"input_size"`
	Classes       *int64   `yaml:"classes"`
	Loss          string   `yaml:"loss"`
	Negatives     *int64   `yaml:"negatives"`
	LearningRate  *float64 `yaml:"learning_rate"`
	LearningFloor *float64 `yaml:"learning_floor"`
	Seed          *int64   `yaml:"seed"`
	Threads       *int64   `yaml:"threads"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string   `yaml:"server_address"`
	RateLimit     *float64 `yaml:"rate_limit"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fasttext", "config.yaml")
}

// applyModelConfig applies config file defaults to the shared model
// flag variables when the corresponding CLI flag was not explicitly set.
func applyModelConfig(c *cli.Command, cfg Config) {
	if cfg.Dim != nil && !c.IsSet("dim") && !c.IsSet("d") {
		dim = *cfg.Dim
	}
	if cfg.InputSize != nil && !c.IsSet("input-size") && !c.IsSet("buckets") {
		inputSize = *cfg.InputSize
	}
	if cfg.Classes != nil && !c.IsSet("classes") {
		classes = *cfg.Classes
	}
	if cfg.Loss != "" && !c.IsSet("loss") {
		lossName = cfg.Loss
	}
	if cfg.Negatives != nil && !c.IsSet("neg") {
		negatives = *cfg.Negatives
	}
	if cfg.LearningRate != nil && !c.IsSet("lr") {
		learningRate = *cfg.LearningRate
	}
	if cfg.LearningFloor != nil && !c.IsSet("lr-floor") {
		lrFloor = *cfg.LearningFloor
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	if cfg.Threads != nil && !c.IsSet("threads") && !c.IsSet("j") {
		threads = *cfg.Threads
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, qps *float64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.RateLimit != nil && !c.IsSet("qps") {
		*qps = *cfg.RateLimit
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
