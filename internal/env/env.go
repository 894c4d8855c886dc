package env

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories nativedeps reads.
const AppName = "nativedeps"

// ConfigDir returns the per-user configuration directory. It is not created.
func ConfigDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, AppName), nil
}

// ConfigFile returns the default config file path inside ConfigDir.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
