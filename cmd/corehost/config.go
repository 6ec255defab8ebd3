package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultHostConfigDir  = ".clrhost"
	defaultHostConfigName = "config.yaml"
	configEnv             = "CLRHOST_CONFIG"
)

var errConfigNotFound = errors.New("host config not found")

// Config is the demonstration run. Zero fields fall through to the next
// source: flags override the config file, which overrides DefaultConfig.
type Config struct {
	ExePath    string            `yaml:"exe_path"`
	RuntimeDir string            `yaml:"runtime_dir"`
	AppDir     string            `yaml:"app_dir"`
	Assembly   string            `yaml:"assembly"`
	Type       string            `yaml:"type"`
	Method     string            `yaml:"method"`
	HostName   string            `yaml:"host_name"`
	StrictScan bool              `yaml:"strict_scan"`
	Properties map[string]string `yaml:"properties"`
}

// DefaultConfig returns the fixed demonstration inputs.
func DefaultConfig() Config {
	return Config{
		ExePath:    "./corehost",
		RuntimeDir: "/usr/share/dotnet/shared/Microsoft.NETCore.App/2.0.0/",
		AppDir:     "./",
		Assembly:   "ClassLibrary2",
		Type:       "ClassLibrary2.Class1",
		Method:     "Test",
		HostName:   "corerun",
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return defaultHostConfigName
	}
	return filepath.Join(home, defaultHostConfigDir, defaultHostConfigName)
}

// resolveConfigPath reports the config file to read and whether one was
// requested or found. An explicit path or CLRHOST_CONFIG must exist; the
// default path is optional.
func resolveConfigPath(explicit string) (string, bool) {
	if strings.TrimSpace(explicit) != "" {
		return expandUserPath(explicit), true
	}
	if env := strings.TrimSpace(os.Getenv(configEnv)); env != "" {
		return expandUserPath(env), true
	}
	defaultPath := defaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath, true
	}
	return defaultPath, false
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return path
}

func loadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, override Config) Config {
	if strings.TrimSpace(override.ExePath) != "" {
		base.ExePath = override.ExePath
	}
	if strings.TrimSpace(override.RuntimeDir) != "" {
		base.RuntimeDir = override.RuntimeDir
	}
	if strings.TrimSpace(override.AppDir) != "" {
		base.AppDir = override.AppDir
	}
	if strings.TrimSpace(override.Assembly) != "" {
		base.Assembly = override.Assembly
	}
	if strings.TrimSpace(override.Type) != "" {
		base.Type = override.Type
	}
	if strings.TrimSpace(override.Method) != "" {
		base.Method = override.Method
	}
	if strings.TrimSpace(override.HostName) != "" {
		base.HostName = override.HostName
	}
	if override.StrictScan {
		base.StrictScan = true
	}
	if len(override.Properties) > 0 {
		base.Properties = override.Properties
	}
	return base
}
