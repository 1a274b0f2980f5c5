package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore keeps assets as public objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore writes objects named "<prefix>/<generated name>" into bucket.
func NewGCSStore(client *storage.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Save writes data as a public object and returns its URL.
func (s *GCSStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	object := s.objectName(GenerateName(filename, time.Now()))

	wc := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if ct := mime.TypeByExtension(filepath.Ext(object)); ct != "" {
		wc.ContentType = ct
	}
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to write object %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", object, err)
	}
	return s.publicURL(object), nil
}

// Delete removes the object behind a URL returned by Save. A missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	object, ok := s.objectFromURL(path)
	if !ok {
		return fmt.Errorf("path %s is not in bucket %s", path, s.bucket)
	}
	err := s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", object, err)
	}
	return nil
}

func (s *GCSStore) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *GCSStore) publicURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object)
}

func (s *GCSStore) objectFromURL(url string) (string, bool) {
	base := s.publicURL("")
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	object := strings.TrimPrefix(url, base)
	return object, object != ""
}
