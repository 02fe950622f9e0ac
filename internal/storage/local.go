package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore persists uploads on the local filesystem under a root directory
// and serves them from a public base path. It is the development driver; the
// S3 store is its production counterpart.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore constructs a filesystem store rooted at dir.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes the content to root/name, creating intermediate directories,
// and returns the public URL.
func (s *LocalStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	key := path.Clean(strings.TrimLeft(name, "/"))
	if key == "" || key == "." || strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("local storage: invalid key %q", name)
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// List returns the filenames stored directly under the prefix directory.
// A missing directory yields an empty listing, not an error.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(path.Clean(strings.TrimLeft(prefix, "/"))))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read upload directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Root returns the filesystem root, used to mount the static file server.
func (s *LocalStore) Root() string {
	return s.root
}
