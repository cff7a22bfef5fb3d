package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/litrev/config.yml.
// Environment variables take precedence over the file.
type GlobalConfig struct {
	NCBIAPIKey   string `yaml:"ncbi_api_key,omitempty"`
	NCBIEmail    string `yaml:"ncbi_email,omitempty"`
	PipelinePath string `yaml:"pipeline,omitempty"` // Default pipeline YAML
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "litrev"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// Environment variables overriding the global config.
	EnvNCBIAPIKey = "NCBI_API_KEY"
	EnvNCBIEmail  = "NCBI_EMAIL"
	EnvPipeline   = "LITREV_CONFIG"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/litrev/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	var cfg GlobalConfig
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvNCBIAPIKey); v != "" {
		cfg.NCBIAPIKey = v
	}
	if v := os.Getenv(EnvNCBIEmail); v != "" {
		cfg.NCBIEmail = v
	}
	if v := os.Getenv(EnvPipeline); v != "" {
		cfg.PipelinePath = v
	}
	if cfg.PipelinePath != "" {
		cfg.PipelinePath = ExpandPath(cfg.PipelinePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetNCBIAPIKey returns the NCBI E-utilities API key, if any.
func GetNCBIAPIKey() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv(EnvNCBIAPIKey)
	}
	return cfg.NCBIAPIKey
}

// GetNCBIEmail returns the contact email sent with E-utilities requests.
func GetNCBIEmail() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv(EnvNCBIEmail)
	}
	return cfg.NCBIEmail
}

// GetPipelinePath returns the default pipeline config path, if any.
func GetPipelinePath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv(EnvPipeline)
	}
	return cfg.PipelinePath
}
