package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// LocalStore keeps assets in a filesystem and serves them under urlPrefix.
type LocalStore struct {
	fs        afero.Fs
	urlPrefix string
	now       func() time.Time
}

// NewLocalStore stores assets at the root of fs.
func NewLocalStore(fs afero.Fs, urlPrefix string) *LocalStore {
	return &LocalStore{
		fs:        fs,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		now:       time.Now,
	}
}

// NewDiskStore stores assets in dir on the OS filesystem, creating it if needed.
func NewDiskStore(dir, urlPrefix string) (*LocalStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return NewLocalStore(afero.NewBasePathFs(osFs, dir), urlPrefix), nil
}

// FS is the filesystem assets are written to, rooted at the store.
func (s *LocalStore) FS() afero.Fs { return s.fs }

// Save writes data under a generated name and returns its public path.
func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (string, error) {
	name := GenerateName(filename, s.now())
	if err := afero.WriteFile(s.fs, "/"+name, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return s.urlPrefix + "/" + name, nil
}

// Delete removes the file behind a path returned by Save. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	name, err := s.nameOf(p)
	if err != nil {
		return err
	}
	if err := s.fs.Remove("/" + name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// nameOf maps a public path back to a file name at the store root.
func (s *LocalStore) nameOf(p string) (string, error) {
	if !strings.HasPrefix(p, s.urlPrefix+"/") {
		return "", fmt.Errorf("path %s is outside %s", p, s.urlPrefix)
	}
	name := path.Base(strings.TrimPrefix(p, s.urlPrefix+"/"))
	if name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("path %s does not name a file", p)
	}
	return name, nil
}
