package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envQuantsimConfig = "QUANTSIM_CONFIG"

// Config represents the quantsim configuration file
// (~/.config/quantsim/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	Datatype    string `yaml:"datatype"`
	Bits        *int   `yaml:"bits"`
	GroupSize   *int   `yaml:"group_size"`
	Workers     *int   `yaml:"workers"`
	IncludeHead *bool  `yaml:"include_head"`

	// Output
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	MetaFormat string `yaml:"meta_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envQuantsimConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quantsim", "config.yaml")
}

// applyLoggingConfig applies config file defaults to the global logging
// flags when they were not set on the command line.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyQuantConfig fills datatype, bits and group size from the config file.
func applyQuantConfig(c *cli.Command, cfg Config, q *quantFlags) {
	if cfg.Datatype != "" && !c.IsSet("datatype") {
		q.datatype = cfg.Datatype
	}
	if cfg.Bits != nil && !c.IsSet("bits") {
		q.bits = *cfg.Bits
	}
	if cfg.GroupSize != nil && !c.IsSet("group-size") {
		q.groupSize = *cfg.GroupSize
	}
}

func applyQuantizeConfig(c *cli.Command, cfg Config, opts *quantizeOptions) {
	applyQuantConfig(c, cfg, &opts.quant)
	if cfg.Workers != nil && !c.IsSet("workers") {
		opts.workers = *cfg.Workers
	}
	if cfg.IncludeHead != nil && !c.IsSet("include-head") {
		opts.includeHead = *cfg.IncludeHead
	}
	if cfg.MetaFormat != "" && !c.IsSet("meta-format") {
		opts.metaFormat = cfg.MetaFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	cfg, _ := loadConfigFile(configPath())
	return cfg
}

func loadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
