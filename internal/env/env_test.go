package env

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("os.UserConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(userConfigDir, "nativedeps"); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirWithXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honored on linux")
	}
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	file, err := ConfigFile()
	if err != nil {
		t.Fatalf("ConfigFile() failed: %v", err)
	}
	if want := filepath.Join(tempDir, "nativedeps", "config.yaml"); file != want {
		t.Errorf("ConfigFile() = %q, want %q", file, want)
	}
	if _, err := os.Stat(filepath.Dir(file)); !os.IsNotExist(err) {
		t.Errorf("ConfigFile() created its directory: %v", err)
	}
}
