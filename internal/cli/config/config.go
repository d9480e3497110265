package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "curatime.json"

// Environment is a CuraTime deployment the CLI can talk to
type Environment struct {
	Alias     string `json:"alias"`
	APIURL    string `json:"api_url"`
	PortalURL string `json:"portal_url,omitempty"` // web portal, used by 'curatime open'
}

// Validate checks that the environment can be used
func (e *Environment) Validate() error {
	if e.APIURL == "" {
		return fmt.Errorf("environment '%s' has no api_url. Please edit %s", e.Alias, ConfigFileName)
	}
	u, err := url.Parse(e.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("environment '%s' has an invalid api_url %q", e.Alias, e.APIURL)
	}
	return nil
}

// Config represents the CLI configuration file
type Config struct {
	Environments []Environment `json:"environments"`
}

// DefaultConfig returns a configuration pointing at a local API
func DefaultConfig() *Config {
	return &Config{
		Environments: []Environment{
			{
				Alias:     "local",
				APIURL:    "http://127.0.0.1:8000/api",
				PortalURL: "http://localhost:5173",
			},
		},
	}
}

// FindConfigFile searches for curatime.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find curatime.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Environments {
		cfg.Environments[i].APIURL = strings.TrimRight(cfg.Environments[i].APIURL, "/")
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetEnvironmentByAlias returns an environment by its alias
func (c *Config) GetEnvironmentByAlias(alias string) (*Environment, error) {
	for i := range c.Environments {
		if c.Environments[i].Alias == alias {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment with alias '%s' not found", alias)
}

// GetEnvironmentByURL returns an environment by its API URL
func (c *Config) GetEnvironmentByURL(apiURL string) (*Environment, error) {
	apiURL = strings.TrimRight(apiURL, "/")
	for i := range c.Environments {
		if c.Environments[i].APIURL == apiURL {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment with API URL '%s' not found", apiURL)
}

// GetDefaultEnvironment returns the first environment in the list
func (c *Config) GetDefaultEnvironment() (*Environment, error) {
	if len(c.Environments) == 0 {
		return nil, fmt.Errorf("no environments configured in %s", ConfigFileName)
	}
	return &c.Environments[0], nil
}
