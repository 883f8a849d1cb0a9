// Package storage persists artifacts produced by a session, such as
// screenshots.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePersister persists files. It abstracts away the where and how of
// writing artifacts.
type FilePersister interface {
	Persist(ctx context.Context, path string, data io.Reader) error
}

// LocalFilePersister writes files to the local disk.
type LocalFilePersister struct{}

var _ FilePersister = &LocalFilePersister{}

// Persist writes data to path, creating missing directories. The data lands
// in a temporary file next to path first and replaces path only once fully
// written, so readers never observe a partial file.
func (l *LocalFilePersister) Persist(ctx context.Context, path string, data io.Reader) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("persisting %q: %w", path, err)
	}

	cp := filepath.Clean(path)
	dir := filepath.Dir(cp)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating a local directory %q: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(cp)+".*")
	if err != nil {
		return fmt.Errorf("creating a temporary file in %q: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = io.Copy(f, data); err != nil {
		return fmt.Errorf("writing %q: %w", cp, err)
	}
	if err = f.Chmod(0o600); err != nil {
		return fmt.Errorf("setting permissions of %q: %w", cp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", f.Name(), err)
	}
	if err = os.Rename(f.Name(), cp); err != nil {
		return fmt.Errorf("moving %q into place: %w", cp, err)
	}

	return nil
}
