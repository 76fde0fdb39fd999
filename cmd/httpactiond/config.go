package main

import (
	"fmt"
	"os"

	"github.com/BlueOwlOpenSource/httpaction"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type serverConfig struct {
	Addr       string            `yaml:"addr"`
	Name       string            `yaml:"name"`
	LogLevel   string            `yaml:"logLevel"`
	Extension  string            `yaml:"extension"`
	InitParams map[string]string `yaml:"initParams"`
}

type fileConfig struct {
	Factory httpaction.Config `yaml:"factory"`
	Server  serverConfig      `yaml:"server"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Factory: httpaction.DefaultConfig(),
		Server: serverConfig{
			Addr:     ":8080",
			Name:     "httpactiond",
			LogLevel: "info",
		},
	}
}

// loadConfig reads the YAML file at path over the defaults.  An empty path
// gives the defaults.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// configFromFlags loads the file named by --config and applies the flags
// the user set explicitly.
func configFromFlags(cmd *cobra.Command) (fileConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("log-level") {
		cfg.Server.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("case-insensitive") {
		ci, _ := flags.GetBool("case-insensitive")
		cfg.Factory.ActionPathCaseSensitive = !ci
	}
	return cfg, nil
}
