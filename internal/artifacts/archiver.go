// Package artifacts uploads preparatory result files to object storage so
// they survive the run directory's lifecycle. Archiving is best-effort: by
// the time it runs the batch jobs are already submitted, so a failure here
// never fails the provisioning run.
package artifacts

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vk/haloprov/internal/ctxlog"
)

// Archiver stores run artifacts under a key prefix.
type Archiver interface {
	// Archive uploads the named files (absolute paths) under prefix.
	Archive(ctx context.Context, prefix string, files []string) error
}

// Store is a minio-backed Archiver.
type Store struct {
	client *minio.Client
	bucket string
}

// Options configures a Store.
type Options struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewStore connects to the configured object storage endpoint.
func NewStore(opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage %s: %w", opts.Endpoint, err)
	}
	return &Store{client: client, bucket: opts.Bucket}, nil
}

// Archive implements Archiver.
func (s *Store) Archive(ctx context.Context, prefix string, files []string) error {
	logger := ctxlog.FromContext(ctx)
	for _, file := range files {
		key := path.Join(prefix, filepath.Base(file))
		info, err := s.client.FPutObject(ctx, s.bucket, key, file, minio.PutObjectOptions{})
		if err != nil {
			return fmt.Errorf("uploading %s to %s/%s: %w", file, s.bucket, key, err)
		}
		logger.Info("Archived result file.", "bucket", s.bucket, "key", key, "size", info.Size)
	}
	return nil
}
