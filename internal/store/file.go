package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/lox/diamondlocks/internal/fileutil"
)

// File stores each key as its own file under a directory. Writes are atomic
// renames, so a crash mid-write leaves the previous value intact.
type File struct {
	dir string
}

// OpenFile uses dir (created if missing) as a file-per-key store.
func OpenFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store: path is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &File{dir: dir}, nil
}

// path escapes the key so ':' and '/' in usernames stay inside dir.
func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key))
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(f.path(key), value, 0o600)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.RemoveIfExists(f.path(key))
}

func (f *File) Close() error { return nil }
