package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"oauthrelay/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/oauthrelay"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable so tests can replace it.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/oauthrelay.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// FilePath returns the config file location inside configPath.
func FilePath(configPath string) string {
	return filepath.Join(configPath, configFileName)
}

// LoadConfig loads config.yaml from configPath on top of the defaults and validates it.
// A missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := FilePath(configPath)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		var typeErr *yaml.TypeError
		details := ""
		if errors.As(err, &typeErr) {
			details = fmt.Sprintf("%v", typeErr.Errors)
		}
		return Config{}, NewConfigurationErrorWithDetails(configFilePath, "", "parse",
			"malformed YAML", details, []string{"Check indentation and that durations are quoted strings such as \"500ms\""})
	}

	if errs := Validate(config, configFilePath); errs.HasErrors() {
		return Config{}, errs
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}
