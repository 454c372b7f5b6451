package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockDryRun(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	report, err := Lock(path, true)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if report.Written {
		t.Fatal("report.Written = true, want false in dry-run")
	}
	if report.Hash == "" {
		t.Fatal("dry-run should still compute the hash")
	}
	if _, err := os.Stat(report.ChecksumPath); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestLockThenLoad(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, "log:\n  level: info\n")

	report, err := Lock(path, false)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !report.Written {
		t.Fatal("report.Written = false, want true")
	}

	manifest, err := LoadChecksums(filepath.Dir(path))
	if err != nil {
		t.Fatalf("LoadChecksums() failed: %v", err)
	}
	if manifest.Hashes[FileName] != report.Hash {
		t.Fatalf("manifest hash = %q, want %q", manifest.Hashes[FileName], report.Hash)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("Load() of locked config failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	if err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Fatalf("Load() after edit = %v, want hash mismatch", err)
	}
}

func TestLockPreservesOtherEntries(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	dir := filepath.Dir(path)
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(other, []byte("x: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Lock(other, false); err != nil {
		t.Fatalf("Lock(other) failed: %v", err)
	}
	if _, err := Lock(path, false); err != nil {
		t.Fatalf("Lock(path) failed: %v", err)
	}

	manifest, err := LoadChecksums(dir)
	if err != nil {
		t.Fatalf("LoadChecksums() failed: %v", err)
	}
	if len(manifest.Hashes) != 2 {
		t.Fatalf("len(manifest.Hashes) = %d, want 2", len(manifest.Hashes))
	}
}

func TestLoadRejectsUnlistedFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	dir := filepath.Dir(path)
	if err := os.WriteFile(filepath.Join(dir, ChecksumFile), []byte("version: 1\nhashes: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "no hash") {
		t.Fatalf("Load() = %v, want missing hash error", err)
	}
}
