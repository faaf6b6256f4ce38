package repo

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kjk/common/atomicfile"
)

// ErrInvalidKey is returned by FileStore for keys that cannot name a file.
var ErrInvalidKey = errors.New("invalid blob key")

// FileStore keeps one file per key inside Dir. Writes go to a temp file in
// the same directory which is fsynced and renamed over the destination, so a
// failed Set leaves the previous blob untouched.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Dir, url.PathEscape(key)+".json"), nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// Set atomically replaces the file for key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return WriteFileAtomic(p, []byte(value))
}

// WriteFileAtomic writes data to a temp file next to dst and renames it
// into place. On any failure the temp file is removed and dst is untouched.
func WriteFileAtomic(dst string, data []byte) error {
	w, err := atomicfile.New(dst)
	if err != nil {
		return err
	}
	defer w.RemoveIfNotClosed()

	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}
