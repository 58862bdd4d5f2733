package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// tempPattern names staging files ".vessel-<base>-*.tmp" so List and the
// watcher, which only look at config.toml and non-dot directories, skip them.
func tempPattern(path string) string {
	return ".vessel-" + filepath.Base(path) + "-*.tmp"
}

// WriteFileAtomic replaces path with data. The bytes are staged in the
// target's directory, flushed, given perm and renamed over path; the rename
// is then made durable by syncing the directory.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	staged, err := stage(dir, tempPattern(path), data, perm)
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := os.Rename(staged, path); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	syncDir(dir)
	return nil
}

// stage writes data to a new temp file in dir and returns its name. The file
// is removed again on any failure.
func stage(dir, pattern string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", err
	}
	if err = f.Chmod(perm); err != nil {
		return "", err
	}
	if err = f.Sync(); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// syncDir persists directory entries after a rename. It is best effort:
// some filesystems cannot sync a directory and the data is already in place.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
