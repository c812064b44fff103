package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// withFileLock runs fn while holding an exclusive lock on path+".lock", so
// concurrent `config set` invocations do not lose each other's writes.
func withFileLock(path string, fn func() error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return err
	}
	defer func() {
		err = errors.Join(err, unlockFile(f), f.Close())
	}()
	return fn()
}
