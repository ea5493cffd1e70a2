// Package offsite copies backup artifacts to S3-compatible object storage.
package offsite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/config"
)

// objectPutter is the subset of the S3 client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes files to s3://<bucket>/<domain>/<file>.
type Uploader struct {
	client objectPutter
	bucket string
	logger zerolog.Logger
}

// NewUploader creates an Uploader from the S3 settings in cfg. A custom
// endpoint switches to path-style addressing for MinIO and Ceph RGW.
func NewUploader(logger zerolog.Logger, cfg *config.Config) *Uploader {
	opts := s3.Options{
		Region:      cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return &Uploader{
		client: s3.New(opts),
		bucket: cfg.S3Bucket,
		logger: logger.With().Str("component", "offsite").Logger(),
	}
}

// Key returns the object key for a file belonging to domain.
func Key(domain, path string) string {
	return domain + "/" + filepath.Base(path)
}

// Upload copies each existing file in paths under the domain prefix.
// Paths that do not exist are skipped.
func (u *Uploader) Upload(ctx context.Context, domain string, paths ...string) error {
	for _, path := range paths {
		if err := u.put(ctx, domain, path); err != nil {
			return err
		}
	}
	return nil
}

func (u *Uploader) put(ctx context.Context, domain, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	key := Key(domain, path)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", u.bucket, key, err)
	}

	u.logger.Info().Str("bucket", u.bucket).Str("key", key).Int64("size", info.Size()).Msg("backup uploaded")
	return nil
}
