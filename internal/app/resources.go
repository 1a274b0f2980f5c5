package app

import (
	"context"
	"fmt"

	"recipebox/internal/assets"
	"recipebox/internal/config"
	"recipebox/pkg/rabbitmq"

	"cloud.google.com/go/storage"
)

// OpenAssets builds the configured asset sink. The returned close function
// releases any client it opened.
func OpenAssets(ctx context.Context, cfg config.AssetConfig) (assets.Store, func() error, error) {
	switch cfg.Backend {
	case config.AssetBackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return assets.NewGCSStore(client, cfg.GCSBucket, cfg.URLPrefix), client.Close, nil
	default:
		local, err := assets.NewDiskStore(cfg.UploadDir, cfg.URLPrefix)
		if err != nil {
			return nil, nil, err
		}
		return local, func() error { return nil }, nil
	}
}

// OpenEvents connects to RabbitMQ when url is set. A nil client means
// events are disabled.
func OpenEvents(url string) (*rabbitmq.Client, error) {
	if url == "" {
		return nil, nil
	}
	return rabbitmq.NewClient(rabbitmq.Config{URL: url})
}
