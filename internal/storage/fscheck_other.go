//go:build !darwin && !linux

package storage

// Without statfs the filesystem is reported as unknown, which is accepted.
func detectFilesystemType(string) (string, error) {
	return "unknown", nil
}
