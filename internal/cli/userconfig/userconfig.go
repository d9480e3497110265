// Package userconfig keeps per-user CLI state, such as the selected
// environment, in ~/.config/curatime/config.json.
package userconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// UserConfig is the state remembered between CLI invocations.
type UserConfig struct {
	// SelectedEnvironment is the API URL of the environment in use.
	SelectedEnvironment string `json:"selected_environment"`
	LastRole            string `json:"last_role,omitempty"`
}

// Path is where the state file lives for the current user.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "curatime", "config.json"), nil
}

// Load returns the stored state. A missing or empty file is an empty state.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &UserConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	case len(bytes.TrimSpace(data)) == 0:
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to a temporary file next to the state file and renames it
// into place.
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func update(apply func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	apply(cfg)
	return Save(cfg)
}

// SetSelectedEnvironment remembers apiURL as the environment to use. An empty
// apiURL clears the selection.
func SetSelectedEnvironment(apiURL string) error {
	return update(func(cfg *UserConfig) { cfg.SelectedEnvironment = apiURL })
}

// GetSelectedEnvironment returns the remembered API URL, or "" if none.
func GetSelectedEnvironment() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedEnvironment, nil
}

// SetLastRole remembers the role used at the last login.
func SetLastRole(role string) error {
	return update(func(cfg *UserConfig) { cfg.LastRole = role })
}
