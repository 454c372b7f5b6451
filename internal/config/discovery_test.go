package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverPriority(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)

	userPath := filepath.Join(home, ".config", "hookctl", FileName)
	if err := os.MkdirAll(filepath.Dir(userPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userPath, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvConfig, "")
	got, err := Discover("")
	if err != nil || got != userPath {
		t.Fatalf("Discover() = %q, %v; want user config %q", got, err, userPath)
	}

	if err := os.WriteFile(FileName, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err = Discover("")
	if err != nil || got != FileName {
		t.Fatalf("Discover() = %q, %v; want working-directory config", got, err)
	}

	envPath := filepath.Join(work, "env.yaml")
	if err := os.WriteFile(envPath, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, envPath)
	got, err = Discover("")
	if err != nil || got != envPath {
		t.Fatalf("Discover() = %q, %v; want $%s path", got, err, EnvConfig)
	}

	got, err = Discover(userPath)
	if err != nil || got != userPath {
		t.Fatalf("Discover(flag) = %q, %v; want flag path", got, err)
	}
}

func TestDiscoverNothingFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")

	got, err := Discover("")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got != "" {
		t.Fatalf("Discover() = %q, want empty", got)
	}
}

func TestDiscoverExplicitMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := Discover(missing); err == nil {
		t.Error("Discover(missing flag) should fail")
	}

	t.Setenv(EnvConfig, missing)
	if _, err := Discover(""); err == nil {
		t.Error("Discover() with missing $HOOKCTL_CONFIG should fail")
	}
}
