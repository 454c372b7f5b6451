package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file name looked for during discovery.
const FileName = "hookctl.yaml"

// Discover finds the configuration file.
// Priority order: --config flag, $HOOKCTL_CONFIG, ./hookctl.yaml, ~/.config/hookctl/hookctl.yaml.
// An explicit flag or environment path must exist. When nothing is found
// Discover returns "" and Load falls back to defaults.
func Discover(flagPath string) (string, error) {
	if flagPath != "" {
		if !fileExists(flagPath) {
			return "", fmt.Errorf("config file not found: %s", flagPath)
		}
		return flagPath, nil
	}

	if path := os.Getenv(EnvConfig); path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("$%s points to a missing file: %s", EnvConfig, path)
		}
		return path, nil
	}

	for _, path := range searchPaths() {
		if fileExists(path) {
			return path, nil
		}
	}
	return "", nil
}

func searchPaths() []string {
	paths := []string{FileName}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "hookctl", FileName))
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
