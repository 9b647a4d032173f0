package storage

import (
	"context"
	"io"

	"github.com/toorbo1/telegram-community1-sub000/config"

	"go.uber.org/zap"
)

// Store keeps uploaded objects. Put returns the reference saved on the
// verification row, which URL turns into something an admin can open.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	URL(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// New picks R2 when credentials are configured and falls back to local disk.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	if cfg.R2AccountID != "" && cfg.R2AccessKey != "" && cfg.R2SecretKey != "" && cfg.R2Bucket != "" {
		store, err := NewR2Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("screenshot storage: r2", zap.String("bucket", cfg.R2Bucket))
		return store, nil
	}
	log.Info("screenshot storage: local", zap.String("dir", cfg.UploadDir))
	return NewLocalStore(cfg.UploadDir, "/uploads")
}
