// Package assets persists uploaded recipe photos and removes them again.
package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"recipebox/internal/logging"
	"recipebox/internal/metrics"

	"github.com/google/uuid"
)

// Store is a blob sink addressed by the path it returns from Save.
type Store interface {
	// Save writes data under a fresh name derived from filename and returns
	// the path clients use to fetch it.
	Save(ctx context.Context, filename string, data []byte) (string, error)
	// Delete removes the asset at path. A missing asset is not an error.
	Delete(ctx context.Context, path string) error
}

// Upload is a photo received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Empty reports whether there is no content to store.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// GenerateName returns "<unix millis>-<random>.<ext>", keeping the original
// file extension when it is a plain alphanumeric suffix.
func GenerateName(original string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, cleanExt(original))
}

func cleanExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > 11 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// Manager applies the photo lifecycle of a recipe on top of a Store.
type Manager struct {
	store Store
}

// NewManager creates a Manager writing to store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Store saves upload and returns its path.
func (m *Manager) Store(ctx context.Context, upload *Upload) (string, error) {
	path, err := m.store.Save(ctx, upload.Filename, upload.Data)
	metrics.RecordAsset("save", err)
	if err != nil {
		return "", fmt.Errorf("failed to store photo %s: %w", upload.Filename, err)
	}
	return path, nil
}

// Remove deletes the asset at path. Failures are logged and swallowed.
func (m *Manager) Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	err := m.store.Delete(ctx, path)
	metrics.RecordAsset("delete", err)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("failed to delete photo asset")
	}
}

// Replace deletes oldPath (best-effort) and then stores upload.
func (m *Manager) Replace(ctx context.Context, oldPath string, upload *Upload) (string, error) {
	m.Remove(ctx, oldPath)
	return m.Store(ctx, upload)
}
