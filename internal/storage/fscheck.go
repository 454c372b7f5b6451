package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNetworkFilesystem is returned when the capture database would live on
// a network share or a FUSE mount, where SQLite locking is unreliable.
var ErrNetworkFilesystem = errors.New("sqlite database on network filesystem")

// remoteFilesystems maps statfs type names to how they are reported.
var remoteFilesystems = map[string]string{
	"afpfs":  "network share",
	"cifs":   "network share",
	"smbfs":  "network share",
	"smb2":   "network share",
	"nfs":    "network share",
	"nfs4":   "network share",
	"v9fs":   "network share",
	"webdav": "network share",
}

// fsDetector reports the filesystem type name for an existing path.
type fsDetector func(path string) (string, error)

// checkCaptureFilesystem refuses capture databases on remote storage.
func checkCaptureFilesystem(path string) error {
	return checkCaptureFilesystemWith(path, detectFilesystemType)
}

func checkCaptureFilesystemWith(path string, detect fsDetector) error {
	if path == "" {
		return errors.New("sqlite path is empty")
	}

	existing, err := nearestExistingPath(path)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", path, err)
	}
	fsType, err := detect(existing)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", existing, err)
	}

	if kind, remote := classifyFilesystem(fsType); remote {
		return fmt.Errorf("%w: %q is on a %s (%s); set sink.path to a local file",
			ErrNetworkFilesystem, path, kind, fsType)
	}
	return nil
}

// classifyFilesystem matches FUSE by prefix since Linux reports
// fuse.sshfs, fuseblk and friends, and macOS reports macfuse or osxfuse.
func classifyFilesystem(fsType string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(fsType))
	if kind, ok := remoteFilesystems[name]; ok {
		return kind, true
	}
	for _, prefix := range []string{"fuse", "macfuse", "osxfuse"} {
		if strings.HasPrefix(name, prefix) {
			return "FUSE mount", true
		}
	}
	return "", false
}

// nearestExistingPath walks up until something exists, so a database that
// has not been created yet is judged by its directory.
func nearestExistingPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	for dir := abs; ; dir = filepath.Dir(dir) {
		_, err := os.Stat(dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", dir, err)
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
	}
}
